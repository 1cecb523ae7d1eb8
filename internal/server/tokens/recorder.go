package tokens

import "github.com/dmitrijs2005/sessionkeeper/internal/server/models"

// Recorder receives token lifecycle events, typically for metrics.
type Recorder interface {
	Issued(kind models.TokenKind)
	Rotated()
	Replayed()
	Revoked()
}

type nopRecorder struct{}

func (nopRecorder) Issued(models.TokenKind) {}
func (nopRecorder) Rotated()                {}
func (nopRecorder) Replayed()               {}
func (nopRecorder) Revoked()                {}
