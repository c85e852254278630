package blog

import (
	"context"
	"errors"
	"net/http"

	"github.com/Ayooluwabami/Blogging-API/internal/auth"
	"github.com/Ayooluwabami/Blogging-API/internal/middleware"
	"github.com/Ayooluwabami/Blogging-API/internal/telemetry/metrics"
	"github.com/Ayooluwabami/Blogging-API/internal/validation"
	"github.com/Ayooluwabami/Blogging-API/pkg"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
)

const (
	MsgBlogCreated    = "Blog created successfully"
	MsgBlogUpdated    = "Blog updated successfully"
	MsgBlogDeleted    = "Blog deleted successfully"
	MsgBlogNotFound   = "Blog not found"
	MsgDuplicateTitle = "Blog title already exists"
)

type blogService interface {
	Create(ctx context.Context, authorID uuid.UUID, req CreateBlogRequest) (*Blog, error)
	Update(ctx context.Context, blogID string, authorID uuid.UUID, req UpdateBlogRequest) (*Blog, error)
	SoftDelete(ctx context.Context, blogID string, authorID uuid.UUID) error
	GetByID(ctx context.Context, blogID string) (*BlogWithAuthor, error)
	List(ctx context.Context, q ListQuery) (*Page, error)
	ListMine(ctx context.Context, authorID uuid.UUID, q ListQuery) (*Page, error)
}

var _ blogService = (*Service)(nil)

type blogResponse struct {
	Message string `json:"message"`
	Blog    *Blog  `json:"blog"`
}

type Handler struct {
	service blogService
	metrics *metrics.Manager
}

func NewHandler(service blogService, metricsManager *metrics.Manager) *Handler {
	return &Handler{
		service: service,
		metrics: metricsManager,
	}
}

// SetupRoutes registers the blog routes; authGate wraps the ones that need
// a signed in user. my-blogs goes before {id} so it is not taken for an id.
func (handler *Handler) SetupRoutes(router *mux.Router, authGate mux.MiddlewareFunc) {
	router.HandleFunc("/api/blogs", handler.handleList).Methods("GET").Name("list-blogs")
	router.Handle("/api/blogs/my-blogs", authGate(http.HandlerFunc(handler.handleMyBlogs))).Methods("GET").Name("my-blogs")
	router.HandleFunc("/api/blogs/{id}", handler.handleGet).Methods("GET").Name("get-blog")
	router.Handle("/api/blogs", authGate(http.HandlerFunc(handler.handleCreate))).Methods("POST").Name("create-blog")
	router.Handle("/api/blogs/{id}", authGate(http.HandlerFunc(handler.handleUpdate))).Methods("PUT").Name("update-blog")
	router.Handle("/api/blogs/{id}", authGate(http.HandlerFunc(handler.handleDelete))).Methods("DELETE").Name("delete-blog")
}

func (handler *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	q, err := BuildListQuery(r.URL.Query())
	if err != nil {
		writeError(w, "list blogs", err)
		return
	}

	page, err := handler.service.List(r.Context(), q)
	if err != nil {
		writeError(w, "list blogs", err)
		return
	}

	pkg.WriteJSONResponseOK(w, page)
}

func (handler *Handler) handleMyBlogs(w http.ResponseWriter, r *http.Request) {
	authorID, ok := authorFromRequest(w, r)
	if !ok {
		return
	}

	q, err := BuildMyBlogsQuery(authorID, r.URL.Query())
	if err != nil {
		writeError(w, "my blogs", err)
		return
	}

	page, err := handler.service.ListMine(r.Context(), authorID, q)
	if err != nil {
		writeError(w, "my blogs", err)
		return
	}

	pkg.WriteJSONResponseOK(w, page)
}

func (handler *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	blog, err := handler.service.GetByID(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, "get blog", err)
		return
	}

	handler.metrics.CounterBlogReads.Inc()
	pkg.WriteJSONResponseOK(w, blog)
}

func (handler *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	authorID, ok := authorFromRequest(w, r)
	if !ok {
		return
	}

	var req CreateBlogRequest
	if err := validation.DecodeAndValidate(r.Body, &req); err != nil {
		writeError(w, "create blog", err)
		return
	}

	blog, err := handler.service.Create(r.Context(), authorID, req)
	if err != nil {
		writeError(w, "create blog", err)
		return
	}

	handler.metrics.CounterBlogsCreated.Inc()
	log.Tracef("new blog %s: [%s] added", blog.ID, blog.Title)

	pkg.WriteJSONResponse(w, blogResponse{Message: MsgBlogCreated, Blog: blog}, http.StatusCreated)
}

func (handler *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	authorID, ok := authorFromRequest(w, r)
	if !ok {
		return
	}

	var req UpdateBlogRequest
	if err := validation.DecodeAndValidate(r.Body, &req); err != nil {
		writeError(w, "update blog", err)
		return
	}

	blog, err := handler.service.Update(r.Context(), mux.Vars(r)["id"], authorID, req)
	if err != nil {
		writeError(w, "update blog", err)
		return
	}

	pkg.WriteJSONResponseOK(w, blogResponse{Message: MsgBlogUpdated, Blog: blog})
}

func (handler *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	authorID, ok := authorFromRequest(w, r)
	if !ok {
		return
	}

	if err := handler.service.SoftDelete(r.Context(), mux.Vars(r)["id"], authorID); err != nil {
		writeError(w, "delete blog", err)
		return
	}

	pkg.WriteMessage(w, MsgBlogDeleted, http.StatusOK)
}

func authorFromRequest(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		log.Errorf("%s %s: no claims in request context", r.Method, r.URL.Path)
		pkg.WriteInternalServerError(w)
		return uuid.Nil, false
	}

	authorID, err := uuid.Parse(claims.UserID)
	if err != nil {
		pkg.WriteMessage(w, middleware.MsgInvalidToken, http.StatusForbidden)
		return uuid.Nil, false
	}

	return authorID, true
}

func writeError(w http.ResponseWriter, op string, err error) {
	var validationErr *validation.Error
	switch {
	case errors.As(err, &validationErr):
		pkg.WriteMessage(w, validationErr.Message, http.StatusBadRequest)
	case errors.Is(err, ErrBlogNotFound):
		pkg.WriteMessage(w, MsgBlogNotFound, http.StatusNotFound)
	case errors.Is(err, ErrDuplicateTitle):
		pkg.WriteMessage(w, MsgDuplicateTitle, http.StatusBadRequest)
	case errors.Is(err, ErrUnknownAuthor):
		log.Warnf("%s: token for unknown user: %s", op, err)
		pkg.WriteMessage(w, middleware.MsgInvalidToken, http.StatusForbidden)
	default:
		log.Errorf("%s: %s", op, err)
		pkg.WriteInternalServerError(w)
	}
}
