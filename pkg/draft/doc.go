// Package draft holds the in-progress record of a form session and decides
// whether it is dirty relative to the last externally supplied baseline.
package draft
