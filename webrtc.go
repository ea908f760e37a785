package syncplay

import "github.com/pion/webrtc/v4"

// SessionDescription and ICECandidateInit reuse pion/webrtc's wire types
// purely as signaling payloads: this package only relays them between
// group members, it never negotiates a peer connection itself.
type SessionDescription = webrtc.SessionDescription
type ICECandidateInit = webrtc.ICECandidateInit
