package web

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"shop-admin/internal/auth"
	"shop-admin/internal/catalog"
	"shop-admin/internal/observability"
	"shop-admin/internal/web/shopclient"
)

const homePageSize = 10

const unavailableMessage = "The shop service is unavailable. Please try again later."

// Handler renders the HTML pages. It holds no session state of its own:
// every API call carries the browser's session through BearerFromCookie.
type Handler struct {
	client *shopclient.Client
	views  *views
	logger *observability.Logger
	cfg    HandlerConfig
}

type HandlerConfig struct {
	SecureCookies bool
	// SessionTTL is used only when the API response carries no expiry.
	SessionTTL time.Duration
	// TrustedProxies decides which browser address is forwarded to the API.
	TrustedProxies *observability.TrustedProxies
}

func NewHandler(client *shopclient.Client, logger *observability.Logger, cfg HandlerConfig) (*Handler, error) {
	v, err := loadViews()
	if err != nil {
		return nil, err
	}
	if cfg.SessionTTL <= 0 {
		cfg.SessionTTL = time.Hour
	}
	return &Handler{client: client, views: v, logger: logger, cfg: cfg}, nil
}

func (h *Handler) startSession(w http.ResponseWriter, payload auth.AuthPayload) {
	expiresAt := payload.ExpiresAt
	if expiresAt.IsZero() {
		expiresAt = time.Now().Add(h.cfg.SessionTTL)
	}
	SetSessionCookie(w, payload.Token, expiresAt, h.cfg.SecureCookies)
}

// editors carries the browser's session and address on an API call.
func (h *Handler) editors(r *http.Request) []shopclient.RequestEditorFn {
	return []shopclient.RequestEditorFn{
		BearerFromCookie(r),
		ForwardClientIP(r, h.cfg.TrustedProxies),
	}
}

func (h *Handler) base(r *http.Request, title string) basePage {
	return basePage{
		Title:     title,
		CSRFToken: CSRFToken(r.Context()),
		SignedIn:  HasSession(r),
	}
}

func (h *Handler) render(w http.ResponseWriter, r *http.Request, status int, name string, data any) {
	if err := h.views.render(w, status, name, data); err != nil {
		observability.CaptureError(err)
		h.logger.Error("render_failed", map[string]any{
			"template":   name,
			"error":      err.Error(),
			"request_id": observability.RequestIDFromContext(r.Context()),
		})
		http.Error(w, "internal server error", http.StatusInternalServerError)
	}
}

func (h *Handler) renderError(w http.ResponseWriter, r *http.Request, status int, message string) {
	h.render(w, r, status, "error.html", errorPage{
		basePage:  h.base(r, http.StatusText(status)),
		Message:   message,
		RequestID: observability.RequestIDFromContext(r.Context()),
	})
}

// apiProblems turns an API failure into messages for a form. Failures that
// never reached the resolvers are logged and replaced by a generic message.
func (h *Handler) apiProblems(r *http.Request, operation string, err error) []string {
	if messages := shopclient.ErrorMessages(err); len(messages) > 0 {
		return messages
	}
	observability.CaptureError(err)
	h.logger.Error("api_call_failed", map[string]any{
		"operation":  operation,
		"error":      err.Error(),
		"request_id": observability.RequestIDFromContext(r.Context()),
	})
	return []string{unavailableMessage}
}

func isUnauthenticated(err error) bool {
	var responseErr *shopclient.ResponseError
	return errors.As(err, &responseErr) && responseErr.HasCode(shopclient.CodeNotAuthenticated)
}

func (h *Handler) redirectToLogin(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, "/account/login", http.StatusFound)
}

// Home lists products. Any API failure, an expired session included, sends
// the browser to the login page.
func (h *Handler) Home(w http.ResponseWriter, r *http.Request) {
	term := strings.TrimSpace(r.URL.Query().Get("searchTerm"))
	page := 1
	if parsed, err := strconv.Atoi(r.URL.Query().Get("page")); err == nil && parsed > 1 {
		page = parsed
	}

	result, err := h.client.Products(r.Context(), catalog.ListOptions{
		Term: term,
		Skip: (page - 1) * homePageSize,
		Take: homePageSize,
	}, h.editors(r)...)
	if err != nil {
		if !isUnauthenticated(err) {
			h.logger.Warn("list_products_failed", map[string]any{
				"error":      err.Error(),
				"request_id": observability.RequestIDFromContext(r.Context()),
			})
		}
		h.redirectToLogin(w, r)
		return
	}

	h.render(w, r, http.StatusOK, "home.html", homePage{
		basePage:   h.base(r, "Products"),
		SearchTerm: term,
		Products:   result.Items,
		TotalCount: result.TotalCount,
		Page:       page,
		HasMore:    result.HasMore,
	})
}

func (h *Handler) NewProduct(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusOK, "product_form.html", productPage{basePage: h.base(r, "Add product")})
}

func (h *Handler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	form := parseProductForm(r)
	page := productPage{basePage: h.base(r, "Add product"), Form: form}

	input, problems := form.input()
	if len(problems) > 0 {
		page.Errors = problems
		h.render(w, r, http.StatusUnprocessableEntity, "product_form.html", page)
		return
	}

	if _, err := h.client.AddProduct(r.Context(), input, h.editors(r)...); err != nil {
		if isUnauthenticated(err) {
			h.redirectToLogin(w, r)
			return
		}
		page.Errors = h.apiProblems(r, "addProduct", err)
		h.render(w, r, http.StatusUnprocessableEntity, "product_form.html", page)
		return
	}

	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (h *Handler) EditProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := productID(r)
	if !ok {
		h.renderError(w, r, http.StatusNotFound, "Product not found.")
		return
	}

	product, err := h.client.Product(r.Context(), id, h.editors(r)...)
	if err != nil && isUnauthenticated(err) {
		h.redirectToLogin(w, r)
		return
	}
	if err != nil || product == nil {
		h.renderError(w, r, http.StatusNotFound, "Product not found.")
		return
	}

	h.render(w, r, http.StatusOK, "product_form.html", productPage{
		basePage: h.base(r, "Edit product"),
		Form:     productFormFrom(*product),
		Editing:  true,
	})
}

func (h *Handler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := productID(r)
	if !ok {
		h.renderError(w, r, http.StatusNotFound, "Product not found.")
		return
	}

	form := parseProductForm(r)
	form.ID = id
	page := productPage{basePage: h.base(r, "Edit product"), Form: form, Editing: true}

	input, problems := form.input()
	if len(problems) > 0 {
		page.Errors = problems
		h.render(w, r, http.StatusUnprocessableEntity, "product_form.html", page)
		return
	}

	if _, err := h.client.UpdateProduct(r.Context(), id, input, h.editors(r)...); err != nil {
		if isUnauthenticated(err) {
			h.redirectToLogin(w, r)
			return
		}
		page.Errors = h.apiProblems(r, "updateProduct", err)
		h.render(w, r, http.StatusUnprocessableEntity, "product_form.html", page)
		return
	}

	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (h *Handler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := productID(r)
	if !ok {
		h.renderError(w, r, http.StatusNotFound, "Product not found.")
		return
	}

	if err := h.client.DeleteProduct(r.Context(), id, h.editors(r)...); err != nil {
		if isUnauthenticated(err) {
			h.redirectToLogin(w, r)
			return
		}
		h.renderError(w, r, http.StatusBadRequest, strings.Join(h.apiProblems(r, "deleteProduct", err), " "))
		return
	}

	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (h *Handler) LoginForm(w http.ResponseWriter, r *http.Request) {
	if HasSession(r) {
		http.Redirect(w, r, "/", http.StatusFound)
		return
	}
	h.render(w, r, http.StatusOK, "login.html", loginPage{basePage: h.base(r, "Log in")})
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	form := parseLoginForm(r)
	page := loginPage{basePage: h.base(r, "Log in"), Form: loginForm{Username: form.Username}}

	if problems := form.validate(); len(problems) > 0 {
		page.Errors = problems
		h.render(w, r, http.StatusUnprocessableEntity, "login.html", page)
		return
	}

	payload, err := h.client.Login(r.Context(), form.Username, form.Password, h.editors(r)...)
	if err != nil {
		page.Errors = h.apiProblems(r, "login", err)
		h.render(w, r, http.StatusUnprocessableEntity, "login.html", page)
		return
	}

	h.startSession(w, payload)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (h *Handler) RegisterForm(w http.ResponseWriter, r *http.Request) {
	if HasSession(r) {
		http.Redirect(w, r, "/", http.StatusFound)
		return
	}
	h.render(w, r, http.StatusOK, "register.html", registerPage{basePage: h.base(r, "Register")})
}

func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	form := parseRegisterForm(r)
	page := registerPage{basePage: h.base(r, "Register"), Form: registerForm{Username: form.Username}}

	if problems := form.validate(); len(problems) > 0 {
		page.Errors = problems
		h.render(w, r, http.StatusUnprocessableEntity, "register.html", page)
		return
	}

	payload, err := h.client.Register(r.Context(), form.Username, form.Password, h.editors(r)...)
	if err != nil {
		page.Errors = h.apiProblems(r, "register", err)
		h.render(w, r, http.StatusUnprocessableEntity, "register.html", page)
		return
	}

	h.logger.Info("account_registered", map[string]any{"username": payload.Username})
	h.startSession(w, payload)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	ClearSessionCookie(w, h.cfg.SecureCookies)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func productID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}
