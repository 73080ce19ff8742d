package session

import "github.com/immxrtalbeast/axenix_meet/internal/domain"

// Event is a call transport notification. The set of variants is closed.
type Event interface {
	event()
}

type (
	JoinedMeeting struct {
		Local Participant
	}
	ParticipantJoined struct {
		Participant Participant
	}
	ParticipantUpdated struct {
		Participant Participant
	}
	ParticipantLeft struct {
		Participant Participant
	}
	TrackStarted struct {
		Participant Participant
		Track       TrackHandle
	}
	TrackStopped struct {
		Participant Participant
		Track       TrackHandle
	}
	ActiveSpeakerChanged struct {
		SessionID string
	}
	AppMessageReceived struct {
		From    string
		Message domain.AppMessage
	}
	RecordingStarted struct{}
	RecordingStopped struct{}

	RecordingFailed struct {
		Err error
	}
	LeftMeeting struct{}
)

func (JoinedMeeting) event()        {}
func (ParticipantJoined) event()    {}
func (ParticipantUpdated) event()   {}
func (ParticipantLeft) event()      {}
func (TrackStarted) event()         {}
func (TrackStopped) event()         {}
func (ActiveSpeakerChanged) event() {}
func (AppMessageReceived) event()   {}
func (RecordingStarted) event()     {}
func (RecordingStopped) event()     {}
func (RecordingFailed) event()      {}
func (LeftMeeting) event()          {}
