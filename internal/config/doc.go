// Package config persists qobuz-dl settings as a JSON file under the
// XDG config home: credentials, quality tier, naming templates, cover
// art options, behavior flags and worker/retry knobs.
package config
