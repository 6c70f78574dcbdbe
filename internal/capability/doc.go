// Package capability translates between vendor device state and hub
// device events.
//
// The translation rules live here and nowhere else: enum indexes for
// air quality, fraction-to-percent scaling, hue degree scaling, fan
// level clamping, and device profile selection. Both the reconciler's
// initial push and the command router's reflected events go through
// this package so the two paths can never disagree.
package capability
