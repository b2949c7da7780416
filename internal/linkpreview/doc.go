// Package linkpreview scrapes Open Graph metadata so the UI can show a
// preview card before a download starts.
package linkpreview
