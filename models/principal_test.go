// file: models/principal_test.go
package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPrincipal_CanAccessEvent(t *testing.T) {
	event := &Event{ID: "e1", OwnerID: "owner"}

	assert.True(t, Principal{ID: "owner", Type: PrincipalAdmin}.CanAccessEvent(event))
	assert.False(t, Principal{ID: "someone-else", Type: PrincipalAdmin}.CanAccessEvent(event))

	assert.True(t, Principal{ID: "s1", Type: PrincipalStaff, EventID: "e1"}.CanAccessEvent(event))
	assert.False(t, Principal{ID: "s1", Type: PrincipalStaff, EventID: "e2"}.CanAccessEvent(event))

	// staff never inherit ownership even when ids collide
	assert.False(t, Principal{ID: "owner", Type: PrincipalStaff, EventID: "e2"}.CanAccessEvent(event))

	assert.False(t, Principal{}.CanAccessEvent(event))
	assert.False(t, Principal{ID: "owner", Type: PrincipalAdmin}.CanAccessEvent(nil))
}

func TestCheckpoint_TypeAndDesk(t *testing.T) {
	assert.True(t, CheckpointSingle.Valid())
	assert.True(t, CheckpointMultiple.Valid())
	assert.False(t, CheckpointType("single").Valid())

	assert.True(t, (&Checkpoint{Name: RegistrationDesk}).IsRegistrationDesk())
	assert.False(t, (&Checkpoint{Name: "Gate"}).IsRegistrationDesk())
}

func TestParticipant_MergeAttributes(t *testing.T) {
	p := &Participant{}
	p.MergeAttributes(map[string]string{"team": "red"})
	assert.Equal(t, map[string]string{"team": "red"}, p.Attributes)

	p.MergeAttributes(map[string]string{"shirt": "M", "team": "blue"})
	assert.Equal(t, map[string]string{"team": "blue", "shirt": "M"}, p.Attributes)
}
