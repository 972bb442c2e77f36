package handlers_test

import (
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/ardanlabs/peerledger/app/services/viewer/handlers"
	"go.uber.org/zap"
)

func Test_Index(t *testing.T) {
	mux, err := handlers.UIMux(make(chan os.Signal, 1), zap.NewNop().Sugar(), []string{"ws://node1:8080/v1/events"})
	if err != nil {
		t.Fatalf("Should be able to construct the mux: %v", err)
	}

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, r)

	if w.Code != http.StatusOK {
		t.Fatalf("Should serve the index: %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "ws://node1:8080/v1/events") {
		t.Fatalf("Should render the node event url: %s", w.Body.String())
	}
}
