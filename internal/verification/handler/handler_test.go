package handler

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"attestgate/internal/verification/models"
	dErrors "attestgate/pkg/domain-errors"
	"attestgate/pkg/platform/middleware"
	"attestgate/pkg/testutil"
)

type fakeService struct {
	registerFn func(ctx context.Context, session models.Session) error
	completeFn func(ctx context.Context, req models.CompleteRequest) (models.Outcome, error)
}

func (f *fakeService) RegisterSession(ctx context.Context, session models.Session) error {
	return f.registerFn(ctx, session)
}

func (f *fakeService) Complete(ctx context.Context, req models.CompleteRequest) (models.Outcome, error) {
	return f.completeFn(ctx, req)
}

var testSecret = []byte("verification-test-secret")

func newTestRouter(svc Service) http.Handler {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	r := chi.NewRouter()
	New(svc, logger, middleware.NewHMACValidator(testSecret)).Register(r)
	return r
}

func authHeader(t *testing.T) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   "auth0|subject",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	})
	signed, err := token.SignedString(testSecret)
	require.NoError(t, err)
	return "Bearer " + signed
}

func postAuthed(t *testing.T, svc Service, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	r := testutil.NewRequestWithBody(t, http.MethodPost, path, body)
	r.Header.Set("Authorization", authHeader(t))
	return testutil.DoRequest(newTestRouter(svc), r)
}

const validBody = `{
	"session_ref": "inq_abc",
	"identity": {
		"date_of_birth": "1990-05-15",
		"address": {"line1": "221 Main St", "city": "Springfield", "region": "IL", "postal_code": "62701", "country": "US"}
	},
	"address_match": {"verified": true, "confidence": 0.95},
	"age_threshold": 18
}`

func TestHandleComplete(t *testing.T) {
	t.Run("valid request returns the outcome", func(t *testing.T) {
		var got models.CompleteRequest
		svc := &fakeService{
			completeFn: func(_ context.Context, req models.CompleteRequest) (models.Outcome, error) {
				got = req
				return models.Outcome{
					EventID:     "01HZXEXAMPLE",
					AgeVerified: true,
					CompletedAt: time.Now().UTC(),
				}, nil
			},
		}

		w := postAuthed(t, svc, "/verification/complete", validBody)
		require.Equal(t, http.StatusOK, w.Code)

		assert.Equal(t, "inq_abc", got.SessionRef)
		assert.Equal(t, 1990, got.Identity.DateOfBirth.Year())
		assert.Equal(t, "Springfield", got.Identity.Address.City)
		assert.Equal(t, 0.95, got.AddressMatch.Confidence)
		assert.Equal(t, 18, got.AgeThreshold)

		outcome := testutil.DecodeResponse[models.Outcome](t, w)
		assert.Equal(t, "01HZXEXAMPLE", outcome.EventID)
		assert.True(t, outcome.AgeVerified)
	})

	t.Run("bad date of birth gets 400", func(t *testing.T) {
		svc := &fakeService{}
		body := strings.Replace(validBody, "1990-05-15", "15/05/1990", 1)

		w := postAuthed(t, svc, "/verification/complete", body)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		testutil.AssertErrorCode(t, w, "bad_request")
	})

	t.Run("unknown session gets 404", func(t *testing.T) {
		svc := &fakeService{
			completeFn: func(context.Context, models.CompleteRequest) (models.Outcome, error) {
				return models.Outcome{}, dErrors.New(dErrors.CodeNotFound, "verification session not found")
			},
		}

		w := postAuthed(t, svc, "/verification/complete", validBody)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("repeat verification gets 409", func(t *testing.T) {
		svc := &fakeService{
			completeFn: func(context.Context, models.CompleteRequest) (models.Outcome, error) {
				return models.Outcome{}, dErrors.New(dErrors.CodeConflict, "subject already verified")
			},
		}

		w := postAuthed(t, svc, "/verification/complete", validBody)
		assert.Equal(t, http.StatusConflict, w.Code)
	})

	t.Run("missing token gets 401", func(t *testing.T) {
		svc := &fakeService{}
		r := testutil.NewRequestWithBody(t, http.MethodPost, "/verification/complete", validBody)
		w := testutil.DoRequest(newTestRouter(svc), r)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

func TestHandleRegisterSession(t *testing.T) {
	subjectID := "7d1f8a97-6a0f-4f8e-9a3a-1d2e3f405060"
	counterpartyID := "9b2c4d5e-6f70-4182-93a4-b5c6d7e8f901"

	t.Run("registers the binding", func(t *testing.T) {
		var got models.Session
		svc := &fakeService{
			registerFn: func(_ context.Context, session models.Session) error {
				got = session
				return nil
			},
		}

		body := `{"ref": "inq_abc", "subject_id": "` + subjectID + `", "counterparty_id": "` + counterpartyID + `"}`
		w := postAuthed(t, svc, "/verification/sessions", body)

		assert.Equal(t, http.StatusCreated, w.Code)
		assert.Equal(t, "inq_abc", got.Ref)
		assert.Equal(t, subjectID, got.SubjectID.String())
	})

	t.Run("bad subject ID gets 400", func(t *testing.T) {
		svc := &fakeService{}
		body := `{"ref": "inq_abc", "subject_id": "nope", "counterparty_id": "` + counterpartyID + `"}`
		w := postAuthed(t, svc, "/verification/sessions", body)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}
