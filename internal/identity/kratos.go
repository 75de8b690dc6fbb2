package identity

import (
	"context"
	stdErrors "errors"
	"net/http"
	"strings"

	"github.com/google/uuid"
	kratos "github.com/ory/kratos-client-go"

	"github.com/mesaboardhq/mesaboard-backend/pkg/config"
	"github.com/mesaboardhq/mesaboard-backend/pkg/errors"
	"github.com/mesaboardhq/mesaboard-backend/pkg/logger"
)

const identitySchemaID = "default"

// Client talks to the hosted Ory Kratos credential store. The public API
// serves sign-in and session lookups; the admin API (optional) serves
// provisioning.
type Client struct {
	public *kratos.APIClient
	admin  *kratos.APIClient
	logg   *logger.Logger
}

var _ Store = (*Client)(nil)

// New builds a Kratos client from config. The admin surface stays nil when
// no admin URL is configured.
func New(cfg config.KratosConfig, logg *logger.Logger) *Client {
	c := &Client{
		public: newAPIClient(cfg.PublicURL, cfg),
		logg:   logg,
	}
	if cfg.AdminURL != "" {
		c.admin = newAPIClient(cfg.AdminURL, cfg)
	}
	return c
}

func newAPIClient(baseURL string, cfg config.KratosConfig) *kratos.APIClient {
	conf := kratos.NewConfiguration()
	conf.Servers = []kratos.ServerConfiguration{{URL: baseURL}}
	conf.HTTPClient = &http.Client{Timeout: cfg.Timeout}
	return kratos.NewAPIClient(conf)
}

// SignInWithPassword runs the native login flow and returns the minted
// session token plus the identity attached to the new session.
func (c *Client) SignInWithPassword(ctx context.Context, email, password string) (string, *Identity, error) {
	flow, resp, err := c.public.FrontendAPI.CreateNativeLoginFlow(ctx).Execute()
	if err != nil {
		return "", nil, c.mapTransportErr(err, resp, "creating login flow")
	}

	body := kratos.UpdateLoginFlowWithPasswordMethod{
		Method:     "password",
		Identifier: email,
		Password:   password,
	}
	login, resp, err := c.public.FrontendAPI.
		UpdateLoginFlow(ctx).
		Flow(flow.Id).
		UpdateLoginFlowBody(kratos.UpdateLoginFlowWithPasswordMethodAsUpdateLoginFlowBody(&body)).
		Execute()
	if err != nil {
		if status := statusOf(resp); status == http.StatusBadRequest || status == http.StatusUnauthorized {
			return "", nil, errors.Wrap(errors.CodeInvalidCredentials, err, "password sign-in rejected")
		}
		return "", nil, c.mapTransportErr(err, resp, "submitting login flow")
	}

	token := ""
	if login.SessionToken != nil {
		token = *login.SessionToken
	}
	ident, err := identityFromSession(&login.Session)
	if err != nil {
		return "", nil, err
	}
	return token, ident, nil
}

// SessionByToken checks the remote session and returns its identity.
func (c *Client) SessionByToken(ctx context.Context, token string) (*Identity, error) {
	if token == "" {
		return nil, errors.New(errors.CodeUnauthorized, "no session token")
	}
	sess, resp, err := c.public.FrontendAPI.ToSession(ctx).XSessionToken(token).Execute()
	if err != nil {
		if statusOf(resp) == http.StatusUnauthorized {
			return nil, errors.Wrap(errors.CodeUnauthorized, err, "session invalid or expired")
		}
		return nil, c.mapTransportErr(err, resp, "checking session")
	}
	if sess.Active != nil && !*sess.Active {
		return nil, errors.New(errors.CodeUnauthorized, "session is not active")
	}
	return identityFromSession(sess)
}

// SignOut revokes the remote session. A 401 means the session is already
// gone and counts as success.
func (c *Client) SignOut(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	resp, err := c.public.FrontendAPI.
		PerformNativeLogout(ctx).
		PerformNativeLogoutBody(kratos.PerformNativeLogoutBody{SessionToken: token}).
		Execute()
	if err != nil {
		if statusOf(resp) == http.StatusUnauthorized {
			return nil
		}
		return errors.Wrap(errors.CodeSignOutFailure, err, "revoking remote session")
	}
	return nil
}

// ListUsers pages through identities on the admin API.
func (c *Client) ListUsers(ctx context.Context, pageSize int64) ([]Identity, error) {
	if c.admin == nil {
		return nil, errors.New(errors.CodeDependency, "kratos admin url not configured")
	}
	raws, resp, err := c.admin.IdentityAPI.ListIdentities(ctx).PageSize(pageSize).Execute()
	if err != nil {
		return nil, c.mapTransportErr(err, resp, "listing identities")
	}
	out := make([]Identity, 0, len(raws))
	for i := range raws {
		ident, err := identityFromKratos(&raws[i])
		if err != nil {
			continue
		}
		out = append(out, *ident)
	}
	return out, nil
}

// CreateUser provisions an identity with a password credential.
func (c *Client) CreateUser(ctx context.Context, email, password string) (*Identity, error) {
	if c.admin == nil {
		return nil, errors.New(errors.CodeDependency, "kratos admin url not configured")
	}
	body := kratos.CreateIdentityBody{
		SchemaId: identitySchemaID,
		Traits:   map[string]interface{}{"email": email},
		Credentials: &kratos.IdentityWithCredentials{
			Password: &kratos.IdentityWithCredentialsPassword{
				Config: &kratos.IdentityWithCredentialsPasswordConfig{
					Password: &password,
				},
			},
		},
	}
	raw, resp, err := c.admin.IdentityAPI.CreateIdentity(ctx).CreateIdentityBody(body).Execute()
	if err != nil {
		if statusOf(resp) == http.StatusConflict {
			return nil, errors.Wrap(errors.CodeConflict, err, "identity already exists")
		}
		return nil, c.mapTransportErr(err, resp, "creating identity")
	}
	return identityFromKratos(raw)
}

func (c *Client) mapTransportErr(err error, resp *http.Response, action string) error {
	if isDeadline(err) {
		return errors.Wrap(errors.CodeSessionFetchTimeout, err, action+" timed out")
	}
	return errors.Wrap(errors.CodeDependency, err, action+" against credential store failed")
}

func isDeadline(err error) bool {
	if stdErrors.Is(err, context.DeadlineExceeded) {
		return true
	}
	// The SDK flattens transport errors into opaque strings in places.
	return err != nil && strings.Contains(err.Error(), "context deadline exceeded")
}

func statusOf(resp *http.Response) int {
	if resp == nil {
		return 0
	}
	return resp.StatusCode
}

func identityFromSession(sess *kratos.Session) (*Identity, error) {
	if sess == nil || sess.Identity == nil {
		return nil, errors.New(errors.CodeDependency, "session response missing identity")
	}
	ident, err := identityFromKratos(sess.Identity)
	if err != nil {
		return nil, err
	}
	ident.SessionExpiresAt = sess.ExpiresAt
	return ident, nil
}

func identityFromKratos(raw *kratos.Identity) (*Identity, error) {
	subject, err := uuid.Parse(raw.Id)
	if err != nil {
		return nil, errors.Wrap(errors.CodeDependency, err, "identity id is not a uuid")
	}

	email := ""
	if traits, ok := raw.Traits.(map[string]interface{}); ok {
		if v, ok := traits["email"].(string); ok {
			email = v
		}
	}

	verified := false
	for _, addr := range raw.VerifiableAddresses {
		if addr.Verified && (email == "" || strings.EqualFold(addr.Value, email)) {
			verified = true
			break
		}
	}

	return &Identity{
		SubjectID:     subject,
		Email:         email,
		EmailVerified: verified,
	}, nil
}
