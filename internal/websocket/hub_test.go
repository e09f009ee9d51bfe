package websocket

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

func signedToken(t *testing.T, method jwt.SigningMethod, key interface{}) string {
	t.Helper()
	claims := jwt.MapClaims{
		"user_id": uuid.New().String(),
		"exp":     time.Now().Add(time.Minute).Unix(),
	}
	token, err := jwt.NewWithClaims(method, claims).SignedString(key)
	if err != nil {
		t.Fatalf("failed to sign token: %v", err)
	}
	return token
}

func TestHandleWebSocketRejectsMissingToken(t *testing.T) {
	hub := NewHub(nil, "test-secret")
	rr := httptest.NewRecorder()

	hub.HandleWebSocket(rr, httptest.NewRequest(http.MethodGet, "/ws", nil))

	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rr.Code)
	}
}

func TestHandleWebSocketRejectsUnsignedToken(t *testing.T) {
	hub := NewHub(nil, "test-secret")
	token := signedToken(t, jwt.SigningMethodNone, jwt.UnsafeAllowNoneSignatureType)

	rr := httptest.NewRecorder()
	hub.HandleWebSocket(rr, httptest.NewRequest(http.MethodGet, "/ws?token="+token, nil))

	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected alg=none token to be rejected, got %d", rr.Code)
	}
}

func TestHandleWebSocketRejectsBadSignature(t *testing.T) {
	hub := NewHub(nil, "test-secret")
	token := signedToken(t, jwt.SigningMethodHS256, []byte("other-secret"))

	rr := httptest.NewRecorder()
	hub.HandleWebSocket(rr, httptest.NewRequest(http.MethodGet, "/ws?token="+token, nil))

	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected forged token to be rejected, got %d", rr.Code)
	}
}
