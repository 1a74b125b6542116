// Package tables declares the workbook models served by this module and
// registers them with the core registry. Import it for its side effects.
package tables
