// Package catalogtest serves an in-memory Catalog/Cart Service for tests.
package catalogtest

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/go-chi/chi/v5"

	"github.com/zhouzirui/shopbot/backend/internal/model/catalog"
)

// Server fakes the service with upsert-by-product-id cart semantics.
type Server struct {
	*httptest.Server

	mu       sync.Mutex
	products map[int]catalog.Product
	order    []int
	carts    map[int]map[int]int
	nextCart int
	calls    map[string]int
	fail     map[string]int
}

// New starts a server holding products.
func New(products ...catalog.Product) *Server {
	s := &Server{
		products: make(map[int]catalog.Product),
		carts:    make(map[int]map[int]int),
		nextCart: 1,
		calls:    make(map[string]int),
		fail:     make(map[string]int),
	}
	for _, p := range products {
		s.products[p.ID] = p
		s.order = append(s.order, p.ID)
	}

	r := chi.NewRouter()
	r.Get("/products", s.search)
	r.Get("/products/{id}", s.product)
	r.Post("/carts", s.createCart)
	r.Patch("/carts/{id}", s.updateCart)
	r.Get("/carts/{id}", s.getCart)
	s.Server = httptest.NewServer(r)
	return s
}

// Calls returns how often "METHOD /pattern" was hit, e.g. "PATCH /carts/{id}".
func (s *Server) Calls(route string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[route]
}

// FailWith makes every call to route answer status with a message.
func (s *Server) FailWith(route string, status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fail[route] = status
}

// SeedCart stores a cart directly and returns its id.
func (s *Server) SeedCart(lines map[int]int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextCart
	s.nextCart++
	cart := make(map[int]int, len(lines))
	for pid, qty := range lines {
		cart[pid] = qty
	}
	s.carts[id] = cart
	return id
}

// CartLines returns a copy of a cart's product->qty map.
func (s *Server) CartLines(id int) map[int]int {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[int]int)
	for pid, qty := range s.carts[id] {
		out[pid] = qty
	}
	return out
}

// CartCount is the number of carts ever created.
func (s *Server) CartCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.carts)
}

func (s *Server) enter(w http.ResponseWriter, route string) bool {
	s.calls[route]++
	if status, ok := s.fail[route]; ok {
		writeJSON(w, status, map[string]any{"success": false, "message": "falla simulada"})
		return false
	}
	return true
}

func (s *Server) search(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.enter(w, "GET /products") {
		return
	}

	q := strings.ToLower(strings.TrimSpace(r.URL.Query().Get("q")))
	out := make([]catalog.Product, 0)
	for _, id := range s.order {
		p := s.products[id]
		if q == "" || matches(q, p.Name, p.Description, p.Type, p.Color, p.Category) {
			out = append(out, p)
		}
	}
	ok(w, out)
}

// matches mirrors the service: q must be a substring of at least one field.
func matches(q string, fields ...string) bool {
	for _, f := range fields {
		if strings.Contains(strings.ToLower(f), q) {
			return true
		}
	}
	return false
}

func (s *Server) product(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.enter(w, "GET /products/{id}") {
		return
	}

	id, _ := strconv.Atoi(chi.URLParam(r, "id"))
	p, found := s.products[id]
	if !found {
		notFound(w, fmt.Sprintf("Producto con ID %d no encontrado", id))
		return
	}
	ok(w, p)
}

type itemsBody struct {
	Items []catalog.LineItem `json:"items"`
}

func (s *Server) createCart(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.enter(w, "POST /carts") {
		return
	}

	var body itemsBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || len(body.Items) == 0 {
		writeJSON(w, http.StatusBadRequest, map[string]any{"success": false, "message": "Se requiere un array de items"})
		return
	}
	lines := make(map[int]int)
	for _, item := range body.Items {
		p, found := s.products[item.ProductID]
		if !found {
			notFound(w, fmt.Sprintf("Productos no encontrados: %d", item.ProductID))
			return
		}
		if item.Qty <= 0 || p.Stock < item.Qty {
			writeJSON(w, http.StatusBadRequest, map[string]any{"success": false, "message": "Stock insuficiente para " + p.Name})
			return
		}
		lines[item.ProductID] = item.Qty
	}

	id := s.nextCart
	s.nextCart++
	s.carts[id] = lines
	writeJSON(w, http.StatusCreated, map[string]any{"success": true, "message": "Carrito creado exitosamente", "data": s.render(id)})
}

func (s *Server) updateCart(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.enter(w, "PATCH /carts/{id}") {
		return
	}

	id, _ := strconv.Atoi(chi.URLParam(r, "id"))
	lines, found := s.carts[id]
	if !found {
		notFound(w, fmt.Sprintf("Carrito con ID %d no encontrado", id))
		return
	}
	var body itemsBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"success": false, "message": "Se requiere un array de items"})
		return
	}
	for _, item := range body.Items {
		if item.Qty == 0 {
			delete(lines, item.ProductID)
			continue
		}
		lines[item.ProductID] = item.Qty
	}
	ok(w, s.render(id))
}

func (s *Server) getCart(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.enter(w, "GET /carts/{id}") {
		return
	}

	id, _ := strconv.Atoi(chi.URLParam(r, "id"))
	if _, found := s.carts[id]; !found {
		notFound(w, fmt.Sprintf("Carrito con ID %d no encontrado", id))
		return
	}
	ok(w, s.render(id))
}

func (s *Server) render(id int) catalog.Cart {
	lines := s.carts[id]
	pids := make([]int, 0, len(lines))
	for pid := range lines {
		pids = append(pids, pid)
	}
	sort.Ints(pids)

	cart := catalog.Cart{ID: id, Items: make([]catalog.CartItem, 0, len(pids))}
	for _, pid := range pids {
		p := s.products[pid]
		qty := lines[pid]
		cart.Items = append(cart.Items, catalog.CartItem{ProductID: pid, Qty: qty, Product: &p})
		cart.TotalPrice += p.Price * float64(qty)
		cart.TotalItems += qty
	}
	return cart
}

func ok(w http.ResponseWriter, data any) {
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "data": data})
}

func notFound(w http.ResponseWriter, message string) {
	writeJSON(w, http.StatusNotFound, map[string]any{"success": false, "message": message})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
