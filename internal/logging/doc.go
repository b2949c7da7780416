// Package logging wires log/slog with a console handler for interactive use
// and a JSON handler for machine consumption, plus the typed attribute
// helpers and standardized field names shared by every component.
package logging
