// Package configs provides the embedded configuration template for
// storyindex.
//
// The template is embedded at build time with go:embed so it ships in
// every distribution. It is written by `storyindex init` as the project's
// .storyindex.yaml; edit the .yaml file here and rebuild to change it.
package configs

import _ "embed"

// ProjectConfigTemplate is the commented template for project-level
// configuration, written by `storyindex init`.
//
//go:embed project-config.example.yaml
var ProjectConfigTemplate string
