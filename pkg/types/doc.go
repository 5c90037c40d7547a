// Package types defines the link value, the collaborator interfaces the
// link field codec depends on (element resolver, cache tags, id mapper),
// configuration, and the standard error types for the datafields module.
package types
