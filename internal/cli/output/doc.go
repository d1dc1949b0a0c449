// Package output renders command results as a table, JSON or YAML.
//
// Types that know their tabular shape implement Tabler; anything else is
// printed as YAML in table mode.
package output
