package state

import "github.com/untangl/scoutlink/internal/protocol"

// ScoutStore mirrors host-owned facts about the scouted file.
type ScoutStore interface {
	File() string
	SetFile(string)
	Status() protocol.UploadStatus
	SetStatus(protocol.UploadStatus)
	Base64() bool
	SetBase64(bool)
}

type scoutStore struct {
	file   string
	status protocol.UploadStatus
	base64 bool
}

func NewScoutStore() ScoutStore {
	return &scoutStore{}
}

func (s *scoutStore) File() string {
	return s.file
}

func (s *scoutStore) SetFile(file string) {
	s.file = file
}

func (s *scoutStore) Status() protocol.UploadStatus {
	return s.status
}

func (s *scoutStore) SetStatus(status protocol.UploadStatus) {
	s.status = status
}

func (s *scoutStore) Base64() bool {
	return s.base64
}

func (s *scoutStore) SetBase64(enabled bool) {
	s.base64 = enabled
}
