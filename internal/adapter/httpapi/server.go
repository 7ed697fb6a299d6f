package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"

	"github.com/BekhruzCo/soma-selecto/internal/domain"
	"github.com/BekhruzCo/soma-selecto/internal/usecase"
)

const maxUploadSize = 10 << 20

// Usecases — операции, которые сервер выставляет наружу.
type Usecases struct {
	ListProducts  usecase.ListProducts
	GetProduct    usecase.GetProduct
	CreateProduct usecase.CreateProduct
	UpdateProduct usecase.UpdateProduct
	DeleteProduct usecase.DeleteProduct

	ListOrders usecase.ListOrders
	GetOrder   usecase.GetOrder
	PlaceOrder usecase.PlaceOrder
	SetStatus  usecase.SetOrderStatus
	SetRating  usecase.SetOrderRating
}

type Server struct {
	Router *mux.Router
	UC     Usecases
}

// NewServer собирает маршрутизатор. uploadsDir — каталог, из которого
// раздаются изображения товаров.
func NewServer(uc Usecases, uploadsDir string) *Server {
	s := &Server{Router: mux.NewRouter(), UC: uc}

	s.Router.HandleFunc("/", s.handleRoot).Methods(http.MethodGet)

	s.Router.HandleFunc("/products", s.handleListProducts).Methods(http.MethodGet)
	s.Router.HandleFunc("/products", s.handleCreateProduct).Methods(http.MethodPost)
	s.Router.HandleFunc("/products/{id}", s.handleGetProduct).Methods(http.MethodGet)
	s.Router.HandleFunc("/products/{id}", s.handleUpdateProduct).Methods(http.MethodPut)
	s.Router.HandleFunc("/products/{id}", s.handleDeleteProduct).Methods(http.MethodDelete)

	s.Router.HandleFunc("/orders", s.handleListOrders).Methods(http.MethodGet)
	s.Router.HandleFunc("/orders", s.handleCreateOrder).Methods(http.MethodPost)
	s.Router.HandleFunc("/orders/{id}", s.handleGetOrder).Methods(http.MethodGet)
	s.Router.HandleFunc("/orders/{id}", s.handleUpdateStatus).Methods(http.MethodPut)
	s.Router.HandleFunc("/orders/{id}/rating", s.handleUpdateRating).Methods(http.MethodPut)

	s.Router.PathPrefix("/uploads/").Handler(
		http.StripPrefix("/uploads/", http.FileServer(http.Dir(uploadsDir))))

	// preflight-запросы должны попадать в corsMiddleware
	s.Router.PathPrefix("/").Methods(http.MethodOptions).HandlerFunc(
		func(http.ResponseWriter, *http.Request) {})

	s.Router.Use(corsMiddleware)
	return s
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"message": "Welcome to Denov Baraka Somsa API"})
}

func (s *Server) handleListProducts(w http.ResponseWriter, r *http.Request) {
	products, err := s.UC.ListProducts.Execute(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	if products == nil {
		products = []domain.Product{}
	}
	writeJSON(w, http.StatusOK, products)
}

func (s *Server) handleGetProduct(w http.ResponseWriter, r *http.Request) {
	p, err := s.UC.GetProduct.Execute(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) handleCreateProduct(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		http.Error(w, "invalid multipart form", http.StatusBadRequest)
		return
	}
	price, err := strconv.ParseFloat(r.FormValue("price"), 64)
	if err != nil {
		http.Error(w, "price must be a number", http.StatusBadRequest)
		return
	}
	in := usecase.ProductInput{
		Name:        r.FormValue("name"),
		Description: r.FormValue("description"),
		Price:       price,
		Category:    r.FormValue("category"),
		Popular:     strings.EqualFold(r.FormValue("popular"), "true"),
	}

	upload, cleanup, err := formImage(r)
	if err != nil {
		writeError(w, err)
		return
	}
	defer cleanup()

	p, err := s.UC.CreateProduct.Execute(r.Context(), in, upload)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

func (s *Server) handleUpdateProduct(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		http.Error(w, "invalid multipart form", http.StatusBadRequest)
		return
	}
	var patch usecase.ProductPatch
	if v, ok := formField(r, "name"); ok {
		patch.Name = &v
	}
	if v, ok := formField(r, "description"); ok {
		patch.Description = &v
	}
	if v, ok := formField(r, "category"); ok {
		patch.Category = &v
	}
	if v, ok := formField(r, "price"); ok {
		price, err := strconv.ParseFloat(v, 64)
		if err != nil {
			http.Error(w, "price must be a number", http.StatusBadRequest)
			return
		}
		patch.Price = &price
	}
	if v, ok := formField(r, "popular"); ok {
		popular := strings.EqualFold(v, "true")
		patch.Popular = &popular
	}

	upload, cleanup, err := formImage(r)
	if err != nil {
		writeError(w, err)
		return
	}
	defer cleanup()

	p, err := s.UC.UpdateProduct.Execute(r.Context(), mux.Vars(r)["id"], patch, upload)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) handleDeleteProduct(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	p, err := s.UC.DeleteProduct.Execute(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"message": "Product " + id + " deleted",
		"product": p,
	})
}

func (s *Server) handleListOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := s.UC.ListOrders.Execute(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	if orders == nil {
		orders = []domain.Order{}
	}
	writeJSON(w, http.StatusOK, orders)
}

func (s *Server) handleGetOrder(w http.ResponseWriter, r *http.Request) {
	o, err := s.UC.GetOrder.Execute(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, o)
}

func (s *Server) handleCreateOrder(w http.ResponseWriter, r *http.Request) {
	var o domain.Order
	if err := json.NewDecoder(r.Body).Decode(&o); err != nil {
		http.Error(w, "invalid order body", http.StatusBadRequest)
		return
	}
	placed, err := s.UC.PlaceOrder.Execute(r.Context(), o)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, placed)
}

func (s *Server) handleUpdateStatus(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	status := r.URL.Query().Get("status")
	if status == "" {
		http.Error(w, "status query parameter is required", http.StatusBadRequest)
		return
	}
	o, err := s.UC.SetStatus.Execute(r.Context(), id, domain.Status(status))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"message": "Order " + id + " status updated to " + status,
		"order":   o,
	})
}

func (s *Server) handleUpdateRating(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	rating, err := strconv.Atoi(r.URL.Query().Get("rating"))
	if err != nil {
		http.Error(w, "rating must be an integer", http.StatusBadRequest)
		return
	}
	o, err := s.UC.SetRating.Execute(r.Context(), id, rating)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"message": "Order " + id + " rated",
		"order":   o,
	})
}

// formField различает отсутствующее поле и пустое значение: при
// частичном обновлении меняются только присланные поля.
func formField(r *http.Request, name string) (string, bool) {
	if r.MultipartForm == nil {
		return "", false
	}
	vals, ok := r.MultipartForm.Value[name]
	if !ok || len(vals) == 0 {
		return "", false
	}
	return vals[0], true
}

func formImage(r *http.Request) (*domain.AssetUpload, func(), error) {
	file, header, err := r.FormFile("image")
	if errors.Is(err, http.ErrMissingFile) {
		return nil, func() {}, nil
	}
	if err != nil {
		return nil, func() {}, domain.ErrValidation
	}
	return &domain.AssetUpload{Filename: header.Filename, Data: file}, func() { file.Close() }, nil
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrValidation):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, domain.ErrNotFound):
		http.Error(w, "not found", http.StatusNotFound)
	case errors.Is(err, domain.ErrConflict):
		http.Error(w, err.Error(), http.StatusConflict)
	case errors.Is(err, domain.ErrUnsupportedMedia):
		http.Error(w, err.Error(), http.StatusUnsupportedMediaType)
	default:
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}
