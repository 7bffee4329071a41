//go:build unit

package flash

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/alexedwards/scs/v2"
	"github.com/alexedwards/scs/v2/memstore"
)

func TestAddAndPop(t *testing.T) {
	sm := scs.New()
	sm.Store = memstore.New()

	var popped, again []Message
	h := sm.LoadAndSave(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		Add(ctx, sm, Success, "saved")
		Add(ctx, sm, Warning, "careful")
		popped = Pop(ctx, sm)
		again = Pop(ctx, sm)
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	if len(popped) != 2 || popped[0].Text != "saved" || popped[1].Level != Warning {
		t.Errorf("unexpected messages %+v", popped)
	}
	if len(again) != 0 {
		t.Errorf("expected messages to be cleared, got %+v", again)
	}
}

func TestMessagesSurviveRedirect(t *testing.T) {
	sm := scs.New()
	sm.Store = memstore.New()

	mux := http.NewServeMux()
	mux.HandleFunc("/set", func(w http.ResponseWriter, r *http.Request) {
		Add(r.Context(), sm, Info, "hello")
		http.Redirect(w, r, "/get", http.StatusSeeOther)
	})
	var got []Message
	mux.HandleFunc("/get", func(w http.ResponseWriter, r *http.Request) {
		got = Pop(r.Context(), sm)
	})
	h := sm.LoadAndSave(mux)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/set", nil))
	req := httptest.NewRequest(http.MethodGet, "/get", nil)
	for _, c := range rec.Result().Cookies() {
		req.AddCookie(c)
	}
	h.ServeHTTP(httptest.NewRecorder(), req)

	if len(got) != 1 || got[0].Text != "hello" {
		t.Errorf("expected message after redirect, got %+v", got)
	}
}
