package httpapi

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/BekhruzCo/soma-selecto/internal/adapter/assets"
	"github.com/BekhruzCo/soma-selecto/internal/adapter/repo"
	"github.com/BekhruzCo/soma-selecto/internal/domain"
	"github.com/BekhruzCo/soma-selecto/internal/usecase"
)

type testEnv struct {
	server     *Server
	uploadsDir string
}

func setupServer(t *testing.T) testEnv {
	t.Helper()
	dataDir := t.TempDir()
	uploadsDir := filepath.Join(dataDir, "uploads")

	products, err := repo.NewJSONProductRepo(dataDir)
	if err != nil {
		t.Fatalf("product repo: %v", err)
	}
	orders, err := repo.NewJSONOrderRepo(dataDir)
	if err != nil {
		t.Fatalf("order repo: %v", err)
	}
	store, err := assets.NewFileStore(uploadsDir)
	if err != nil {
		t.Fatalf("asset store: %v", err)
	}

	locks := usecase.NewOrderLocker()
	uc := Usecases{
		ListProducts:  usecase.ListProducts{Repo: products},
		GetProduct:    usecase.GetProduct{Repo: products},
		CreateProduct: usecase.CreateProduct{Repo: products, Assets: store},
		UpdateProduct: usecase.UpdateProduct{Repo: products, Assets: store},
		DeleteProduct: usecase.DeleteProduct{Repo: products, Assets: store},
		ListOrders:    usecase.ListOrders{Repo: orders},
		GetOrder:      usecase.GetOrder{Repo: orders},
		PlaceOrder:    usecase.PlaceOrder{Repo: orders},
		SetStatus:     usecase.SetOrderStatus{Repo: orders, Locks: locks},
		SetRating:     usecase.SetOrderRating{Repo: orders, Locks: locks},
	}
	return testEnv{server: NewServer(uc, uploadsDir), uploadsDir: uploadsDir}
}

func (e testEnv) do(t *testing.T, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	w := httptest.NewRecorder()
	e.server.Router.ServeHTTP(w, req)
	return w
}

func multipartBody(t *testing.T, fields map[string]string, imageName string, imageData []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		if err := mw.WriteField(k, v); err != nil {
			t.Fatalf("write field %s: %v", k, err)
		}
	}
	if imageName != "" {
		fw, err := mw.CreateFormFile("image", imageName)
		if err != nil {
			t.Fatalf("create form file: %v", err)
		}
		if _, err := fw.Write(imageData); err != nil {
			t.Fatalf("write image: %v", err)
		}
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}
	return &buf, mw.FormDataContentType()
}

func createProduct(t *testing.T, env testEnv, fields map[string]string, imageName string) (domain.Product, *httptest.ResponseRecorder) {
	t.Helper()
	body, contentType := multipartBody(t, fields, imageName, []byte("fake-image-bytes"))
	req := httptest.NewRequest(http.MethodPost, "/products", body)
	req.Header.Set("Content-Type", contentType)
	w := env.do(t, req)
	var p domain.Product
	if w.Code == http.StatusCreated {
		if err := json.Unmarshal(w.Body.Bytes(), &p); err != nil {
			t.Fatalf("decode product: %v", err)
		}
	}
	return p, w
}

var productFields = map[string]string{
	"name":        "Сомса с мясом",
	"description": "Тандырная сомса",
	"price":       "15000",
	"category":    "somsa",
	"popular":     "true",
}

func TestCreateProduct(t *testing.T) {
	env := setupServer(t)

	p, w := createProduct(t, env, productFields, "")
	if w.Code != http.StatusCreated {
		t.Fatalf("POST /products = %d, body %s", w.Code, w.Body.String())
	}
	if p.ID == "" {
		t.Error("created product has empty id")
	}
	if p.Name != "Сомса с мясом" || p.Price != 15000 || p.Category != "somsa" || !p.Popular {
		t.Errorf("fields not echoed back: %+v", p)
	}

	// The product is readable afterwards.
	w = env.do(t, httptest.NewRequest(http.MethodGet, "/products/"+p.ID, nil))
	if w.Code != http.StatusOK {
		t.Errorf("GET /products/%s = %d", p.ID, w.Code)
	}
}

func TestCreateProductBadPrice(t *testing.T) {
	env := setupServer(t)

	for _, price := range []string{"0", "-500"} {
		fields := map[string]string{}
		for k, v := range productFields {
			fields[k] = v
		}
		fields["price"] = price
		_, w := createProduct(t, env, fields, "")
		if w.Code != http.StatusBadRequest {
			t.Errorf("price %s: code = %d, want 400", price, w.Code)
		}
	}

	// No persistence happened.
	w := env.do(t, httptest.NewRequest(http.MethodGet, "/products", nil))
	var list []domain.Product
	if err := json.Unmarshal(w.Body.Bytes(), &list); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if len(list) != 0 {
		t.Errorf("products persisted after rejected create: %d", len(list))
	}
}

func TestCreateProductWithImage(t *testing.T) {
	env := setupServer(t)

	p, w := createProduct(t, env, productFields, "somsa.jpg")
	if w.Code != http.StatusCreated {
		t.Fatalf("POST = %d, body %s", w.Code, w.Body.String())
	}
	if p.Image != "/uploads/"+p.ID+".jpg" {
		t.Errorf("image path = %q", p.Image)
	}

	// The asset is served back under the static path.
	w = env.do(t, httptest.NewRequest(http.MethodGet, p.Image, nil))
	if w.Code != http.StatusOK {
		t.Errorf("GET %s = %d", p.Image, w.Code)
	}
	if got, _ := io.ReadAll(w.Body); string(got) != "fake-image-bytes" {
		t.Errorf("served asset content = %q", got)
	}
}

func TestCreateProductUnsupportedImage(t *testing.T) {
	env := setupServer(t)

	_, w := createProduct(t, env, productFields, "somsa.gif")
	if w.Code != http.StatusUnsupportedMediaType {
		t.Errorf("code = %d, want 415", w.Code)
	}

	// No file left behind.
	entries, err := os.ReadDir(env.uploadsDir)
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("uploads dir not empty after rejected upload")
	}
}

func TestUpdateProductPartial(t *testing.T) {
	env := setupServer(t)
	p, _ := createProduct(t, env, productFields, "")

	body, contentType := multipartBody(t, map[string]string{"price": "18000"}, "", nil)
	req := httptest.NewRequest(http.MethodPut, "/products/"+p.ID, body)
	req.Header.Set("Content-Type", contentType)
	w := env.do(t, req)
	if w.Code != http.StatusOK {
		t.Fatalf("PUT = %d, body %s", w.Code, w.Body.String())
	}
	var updated domain.Product
	if err := json.Unmarshal(w.Body.Bytes(), &updated); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if updated.Price != 18000 {
		t.Errorf("price = %v, want 18000", updated.Price)
	}
	if updated.Name != p.Name || updated.Description != p.Description {
		t.Errorf("untouched fields changed: %+v", updated)
	}
}

func TestDeleteProductRemovesAsset(t *testing.T) {
	env := setupServer(t)
	p, _ := createProduct(t, env, productFields, "somsa.png")

	w := env.do(t, httptest.NewRequest(http.MethodDelete, "/products/"+p.ID, nil))
	if w.Code != http.StatusOK {
		t.Fatalf("DELETE = %d", w.Code)
	}

	w = env.do(t, httptest.NewRequest(http.MethodGet, "/products/"+p.ID, nil))
	if w.Code != http.StatusNotFound {
		t.Errorf("GET after delete = %d, want 404", w.Code)
	}
	if _, err := os.Stat(filepath.Join(env.uploadsDir, p.ID+".png")); !os.IsNotExist(err) {
		t.Errorf("asset still on disk after delete")
	}
}

func TestProductNotFound(t *testing.T) {
	env := setupServer(t)
	tests := []struct {
		method string
		path   string
	}{
		{http.MethodGet, "/products/missing"},
		{http.MethodDelete, "/products/missing"},
		{http.MethodGet, "/orders/missing"},
	}
	for _, tt := range tests {
		w := env.do(t, httptest.NewRequest(tt.method, tt.path, nil))
		if w.Code != http.StatusNotFound {
			t.Errorf("%s %s = %d, want 404", tt.method, tt.path, w.Code)
		}
	}
}

const orderJSON = `{
  "id": "o1",
  "items": [{"id": "p1", "name": "Somsa", "price": 15000, "quantity": 2}],
  "customer": {"name": "Ali", "phone": "+998901234567", "address": "Denov"},
  "total": 30000,
  "freeDelivery": false,
  "status": "processing"
}`

func postOrder(t *testing.T, env testEnv, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/orders", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return env.do(t, req)
}

func TestOrderEndToEnd(t *testing.T) {
	env := setupServer(t)

	if w := postOrder(t, env, orderJSON); w.Code != http.StatusCreated {
		t.Fatalf("POST /orders = %d, body %s", w.Code, w.Body.String())
	}

	// The stored order is identical to the submitted one.
	w := env.do(t, httptest.NewRequest(http.MethodGet, "/orders/o1", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("GET /orders/o1 = %d", w.Code)
	}
	var got domain.Order
	if err := json.Unmarshal(w.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.ID != "o1" || got.Total != 30000 || got.FreeDelivery || got.Status != domain.StatusProcessing {
		t.Errorf("order mismatch: %+v", got)
	}
	if len(got.Items) != 1 || got.Items[0].Name != "Somsa" || got.Items[0].Quantity != 2 {
		t.Errorf("items mismatch: %+v", got.Items)
	}
	if got.Customer.Name != "Ali" {
		t.Errorf("customer mismatch: %+v", got.Customer)
	}

	// Status transition is visible on the very next read.
	w = env.do(t, httptest.NewRequest(http.MethodPut, "/orders/o1?status=delivering", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("PUT status = %d, body %s", w.Code, w.Body.String())
	}
	w = env.do(t, httptest.NewRequest(http.MethodGet, "/orders/o1", nil))
	_ = json.Unmarshal(w.Body.Bytes(), &got)
	if got.Status != domain.StatusDelivering {
		t.Errorf("status = %s, want delivering", got.Status)
	}

	// Out-of-range rating is rejected and the stored rating stays unset.
	w = env.do(t, httptest.NewRequest(http.MethodPut, "/orders/o1/rating?rating=6", nil))
	if w.Code != http.StatusBadRequest {
		t.Errorf("rating=6 code = %d, want 400", w.Code)
	}
	w = env.do(t, httptest.NewRequest(http.MethodGet, "/orders/o1", nil))
	_ = json.Unmarshal(w.Body.Bytes(), &got)
	if got.Rating != nil {
		t.Errorf("rating = %v, want unset", *got.Rating)
	}

	// A valid rating sticks.
	w = env.do(t, httptest.NewRequest(http.MethodPut, "/orders/o1/rating?rating=5", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("rating=5 code = %d", w.Code)
	}
	w = env.do(t, httptest.NewRequest(http.MethodGet, "/orders/o1", nil))
	_ = json.Unmarshal(w.Body.Bytes(), &got)
	if got.Rating == nil || *got.Rating != 5 {
		t.Errorf("rating = %v, want 5", got.Rating)
	}
}

func TestOrderDuplicateID(t *testing.T) {
	env := setupServer(t)
	if w := postOrder(t, env, orderJSON); w.Code != http.StatusCreated {
		t.Fatalf("first POST = %d", w.Code)
	}
	if w := postOrder(t, env, orderJSON); w.Code != http.StatusConflict {
		t.Errorf("duplicate POST = %d, want 409", w.Code)
	}
}

func TestOrderUnknownStatus(t *testing.T) {
	env := setupServer(t)
	if w := postOrder(t, env, orderJSON); w.Code != http.StatusCreated {
		t.Fatalf("POST = %d", w.Code)
	}
	w := env.do(t, httptest.NewRequest(http.MethodPut, "/orders/o1?status=shipped", nil))
	if w.Code != http.StatusBadRequest {
		t.Errorf("unknown status code = %d, want 400", w.Code)
	}
}

func TestOrderMissingStatusParam(t *testing.T) {
	env := setupServer(t)
	w := env.do(t, httptest.NewRequest(http.MethodPut, "/orders/o1", nil))
	if w.Code != http.StatusBadRequest {
		t.Errorf("missing status code = %d, want 400", w.Code)
	}
}
