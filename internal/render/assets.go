package render

import _ "embed"

// TrackerScript is the client protocol bridge, served at the tracker
// asset route and injected into outbound HTML.
//
//go:embed assets/tracker.js
var TrackerScript []byte
