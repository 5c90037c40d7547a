// Package datafields holds release metadata for the module.
package datafields

// Version is the release version reported by fieldctl.
const Version = "0.1.0"

// ModulePath is the module's import path.
const ModulePath = "github.com/mesh-intelligence/datafields"
