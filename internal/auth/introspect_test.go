package auth_test

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/makerhall/makerhall/internal/auth"
	"github.com/makerhall/makerhall/internal/shared"
	_ "github.com/makerhall/makerhall/testing"
)

func TestIntrospectionClientVerify(t *testing.T) {
	exp := time.Now().Add(time.Hour).Unix()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("expected POST, got %s", r.Method)
		}
		if err := r.ParseForm(); err != nil {
			t.Errorf("parse form: %v", err)
		}
		switch r.PostFormValue("token") {
		case "goodtoken":
			fmt.Fprintf(w, `{"email":"member@makerhall.test","exp":%d}`, exp)
		case "expiredtoken":
			fmt.Fprintf(w, `{"email":"member@makerhall.test","exp":%d}`, time.Now().Add(-time.Hour).Unix())
		default:
			fmt.Fprint(w, `{"error":"invalid_token"}`)
		}
	}))
	defer srv.Close()

	client := auth.NewIntrospectionClient(srv.URL)

	info, err := client.Verify(context.Background(), "goodtoken")
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if info.Email != "member@makerhall.test" {
		t.Fatalf("unexpected email %q", info.Email)
	}
	if info.ExpiresAt.Unix() != exp {
		t.Fatalf("unexpected expiry %v", info.ExpiresAt)
	}

	if _, err := client.Verify(context.Background(), "expiredtoken"); !errors.Is(err, shared.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials for expired token, got %v", err)
	}
	if _, err := client.Verify(context.Background(), "bogus"); !errors.Is(err, shared.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials for rejected token, got %v", err)
	}
}

func TestIntrospectionClientUnreachable(t *testing.T) {
	client := auth.NewIntrospectionClient("http://127.0.0.1:1/introspect")
	_, err := client.Verify(context.Background(), "anytoken")
	if err == nil {
		t.Fatalf("expected transport error")
	}
	if errors.Is(err, shared.ErrInvalidCredentials) {
		t.Fatalf("transport failure must not look like bad credentials")
	}
}
