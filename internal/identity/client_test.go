package identity

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSignInInstallsPrincipalAndNotifies(t *testing.T) {
	var gotPath, gotKey, gotEmail string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotKey = r.URL.Query().Get("key")

		var req map[string]interface{}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("bad body: %v", err)
		}
		gotEmail, _ = req["email"].(string)

		io.WriteString(w, `{"localId":"uid-1","email":"a@b.c","idToken":"id-tok","refreshToken":"refresh-1"}`)
	}))
	defer server.Close()

	client := newTestClient(server.URL, server.URL)

	var seen []*Principal
	unsubscribe := client.OnPrincipalChanged(func(p *Principal) { seen = append(seen, p) })
	defer unsubscribe()
	require.Len(t, seen, 1, "subscription replays the current (nil) principal")
	require.Nil(t, seen[0])

	principal, err := client.SignIn(context.Background(), "a@b.c", "secret")
	require.NoError(t, err)
	require.Equal(t, "/accounts:signInWithPassword", gotPath)
	require.Equal(t, "test-key", gotKey)
	require.Equal(t, "a@b.c", gotEmail)
	require.Equal(t, "uid-1", principal.UID)
	require.Equal(t, principal, client.Current())

	require.Len(t, seen, 2)
	require.Equal(t, "uid-1", seen[1].UID)
}

func TestSignInMapsProviderReasons(t *testing.T) {
	tests := []struct {
		reason  string
		code    CredentialCode
		message string
	}{
		{"EMAIL_NOT_FOUND", CodeAccountNotFound, "No account found with this email. Please sign up first."},
		{"INVALID_PASSWORD", CodeInvalidCredential, "Incorrect email or password. Please try again."},
		{"USER_DISABLED", CodeAccountDisabled, "This account has been disabled."},
		{"TOO_MANY_ATTEMPTS_TRY_LATER : ...", CodeRateLimited, "Too many failed attempts. Please try again later."},
		{"EMAIL_EXISTS", CodeEmailRegistered, "This email is already registered. Please log in instead."},
		{"WEAK_PASSWORD : Password should be at least 6 characters", CodeWeakCredential, "Password should be at least 6 characters."},
		{"OPERATION_NOT_ALLOWED", CodeOperationDisabled, "Email/password sign up is not enabled."},
		{"POPUP_CLOSED_BY_USER", CodePopupDismissed, "Sign-in popup was closed. Please try again."},
		{"POPUP_BLOCKED", CodePopupBlocked, "Popup was blocked by your browser. Please allow popups."},
	}

	for _, tt := range tests {
		t.Run(tt.reason, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusBadRequest)
				fmt.Fprintf(w, `{"error":{"message":%q}}`, tt.reason)
			}))
			defer server.Close()

			client := newTestClient(server.URL, server.URL)
			_, err := client.SignIn(context.Background(), "a@b.c", "nope")

			cerr, ok := AsCredentialError(err)
			require.True(t, ok, "expected CredentialError, got %v", err)
			require.Equal(t, tt.code, cerr.Code)
			require.Equal(t, tt.message, cerr.Message())
		})
	}
}

func TestSignInFailureLeavesNoPrincipal(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		io.WriteString(w, `{"error":{"message":"INVALID_PASSWORD"}}`)
	}))
	defer server.Close()

	client := newTestClient(server.URL, server.URL)
	_, err := client.SignIn(context.Background(), "a@b.c", "nope")
	require.Error(t, err)
	require.Nil(t, client.Current(), "failed auth must not corrupt state")

	_, err = client.Token(context.Background())
	require.ErrorIs(t, err, ErrNoPrincipal)
}

func TestSignUpSetsDisplayName(t *testing.T) {
	var actions []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		actions = append(actions, r.URL.Path)
		switch r.URL.Path {
		case "/accounts:signUp":
			io.WriteString(w, `{"localId":"uid-9","email":"n@e.w","idToken":"id-tok","refreshToken":"refresh-9"}`)
		case "/accounts:update":
			var req map[string]interface{}
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				t.Errorf("bad body: %v", err)
			}
			if name, _ := req["displayName"].(string); name != "Ada" {
				t.Errorf("unexpected display name %q", name)
			}
			io.WriteString(w, `{"localId":"uid-9","displayName":"Ada"}`)
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	}))
	defer server.Close()

	client := newTestClient(server.URL, server.URL)
	principal, err := client.SignUp(context.Background(), "Ada", "n@e.w", "secret123")
	require.NoError(t, err)
	require.Equal(t, []string{"/accounts:signUp", "/accounts:update"}, actions)
	require.Equal(t, "Ada", principal.DisplayName)
}

func TestSignInWithOAuthInstallsPrincipal(t *testing.T) {
	var gotPath, gotPostBody string
	var gotReturnIdp bool
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path

		var req map[string]interface{}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("bad body: %v", err)
		}
		gotPostBody, _ = req["postBody"].(string)
		gotReturnIdp, _ = req["returnIdpCredential"].(bool)

		io.WriteString(w, `{"localId":"uid-7","email":"g@oo.gl","displayName":"Grace","idToken":"id-tok","refreshToken":"refresh-7"}`)
	}))
	defer server.Close()

	client := newTestClient(server.URL, server.URL)

	var seen []*Principal
	client.OnPrincipalChanged(func(p *Principal) { seen = append(seen, p) })

	principal, err := client.SignInWithOAuth(context.Background(), "google.com", "provider-credential")
	require.NoError(t, err)
	require.Equal(t, "/accounts:signInWithIdp", gotPath)
	require.Equal(t, "id_token=provider-credential&providerId=google.com", gotPostBody)
	require.True(t, gotReturnIdp)

	require.Equal(t, "uid-7", principal.UID)
	require.Equal(t, "Grace", principal.DisplayName)
	require.Equal(t, principal, client.Current())
	require.Len(t, seen, 2, "replayed nil, then the installed principal")
	require.Equal(t, "uid-7", seen[1].UID)
}

func TestTokenExchangesOnEveryCall(t *testing.T) {
	var exchanges int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/accounts:signInWithPassword" {
			io.WriteString(w, `{"localId":"uid-1","email":"a@b.c","idToken":"id-tok","refreshToken":"refresh-1"}`)
			return
		}

		if r.URL.Path != "/token" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if err := r.ParseForm(); err != nil {
			t.Errorf("bad form: %v", err)
		}
		if grant := r.PostForm.Get("grant_type"); grant != "refresh_token" {
			t.Errorf("unexpected grant type %q", grant)
		}
		exchanges++
		fmt.Fprintf(w, `{"id_token":"minted-%d","refresh_token":"refresh-%d"}`, exchanges, exchanges+1)
	}))
	defer server.Close()

	client := newTestClient(server.URL, server.URL)
	_, err := client.SignIn(context.Background(), "a@b.c", "secret")
	require.NoError(t, err)

	first, err := client.Token(context.Background())
	require.NoError(t, err)
	second, err := client.Token(context.Background())
	require.NoError(t, err)

	require.Equal(t, 2, exchanges, "each call must exchange, never serve a cached token")
	require.NotEqual(t, first, second)
}

func TestSignOutNotifiesWithNil(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"localId":"uid-1","email":"a@b.c","idToken":"id-tok","refreshToken":"refresh-1"}`)
	}))
	defer server.Close()

	client := newTestClient(server.URL, server.URL)
	_, err := client.SignIn(context.Background(), "a@b.c", "secret")
	require.NoError(t, err)

	last := &Principal{UID: "sentinel"}
	client.OnPrincipalChanged(func(p *Principal) { last = p })
	require.NotNil(t, last, "replay delivers the signed-in principal")

	client.SignOut()
	require.Nil(t, last)
	require.Nil(t, client.Current())
}

func TestStoreHandle(t *testing.T) {
	tests := []struct {
		name      string
		principal *Principal
		want      string
	}{
		{"uid wins", &Principal{UID: "uid-1", Email: "a@b.c"}, "uid-1"},
		{"sanitized email fallback", &Principal{Email: "a.user@ex.com"}, "a_user_ex_com"},
		{"reserved characters", &Principal{Email: "a#b$c[d]e@f"}, "a_b_c_d_e_f"},
		{"nil principal", nil, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, tt.principal.StoreHandle())
		})
	}
}

func newTestClient(accountsURL, tokenURL string) *Client {
	return NewClient(Config{
		AccountsURL: accountsURL,
		TokenURL:    tokenURL,
		APIKey:      "test-key",
	})
}
