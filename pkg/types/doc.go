// Package types defines the entity records, order lifecycle rules, zone
// policy helpers, configuration, and standard errors shared by the
// warehouse data-access layer and its callers.
package types
