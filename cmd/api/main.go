package main

import (
	"database/sql"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/sirupsen/logrus"

	"github.com/tiendago/go-cart-engine/internal/config"
	"github.com/tiendago/go-cart-engine/internal/database"
	"github.com/tiendago/go-cart-engine/internal/session"
	"github.com/tiendago/go-cart-engine/internal/store"
	"github.com/tiendago/go-cart-engine/internal/tools"
)

var log = logrus.New()

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Load config: %v", err)
	}

	db, err := database.NewConnection(&cfg.Database)
	if err != nil {
		log.Fatalf("Connect to database: %v", err)
	}
	defer db.Close()

	log.Info("Connected to database successfully")

	sessions := session.NewStore(cfg.Session.TTL, cfg.Session.SweepInterval)
	defer sessions.Stop()

	mux := http.NewServeMux()

	mux.HandleFunc("/sessions", handleSessions(sessions))
	mux.HandleFunc("/products", handleProducts(db))
	mux.HandleFunc("/products/compare", handleCompareProducts(db))
	mux.HandleFunc("/cart", handleCart(db, sessions))
	mux.HandleFunc("/cart/items", handleCartItems(db, sessions))
	mux.HandleFunc("/cart/items/", handleCartItemByID(db, sessions))
	mux.HandleFunc("/checkout", handleCheckout(db, sessions))
	mux.HandleFunc("/orders/", handleOrderByID(db))

	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      mux,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	log.Infof("Server starting on port %s", cfg.Server.Port)
	if err := server.ListenAndServe(); err != nil {
		log.Fatalf("Server error: %v", err)
	}
}

// resolveUser maps the session header to a user id. An empty string
// means no valid session; the tool layer turns that into its own
// sign-in message, but transport rejects it earlier with a 401.
func resolveUser(r *http.Request, sessions *session.Store) string {
	id := r.Header.Get("X-Session-ID")
	if id == "" {
		return ""
	}
	sess, ok := sessions.Get(id)
	if !ok {
		return ""
	}
	return sess.UserID
}

func handleSessions(sessions *session.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			respondError(w, http.StatusMethodNotAllowed, "Method not allowed")
			return
		}

		var req struct {
			UserID string `json:"user_id"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.UserID == "" {
			respondError(w, http.StatusBadRequest, "Invalid request body")
			return
		}

		sess := sessions.New(req.UserID)
		respondJSON(w, http.StatusCreated, map[string]any{
			"session_id": sess.ID,
			"expires_at": sess.ExpiresAt,
		})
	}
}

func handleProducts(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			respondError(w, http.StatusMethodNotAllowed, "Method not allowed")
			return
		}

		filter := store.ProductFilter{
			ID:            r.URL.Query().Get("id"),
			SKU:           r.URL.Query().Get("sku"),
			NameSubstring: r.URL.Query().Get("name"),
		}

		msg, err := tools.SearchProducts(r.Context(), db, filter)
		if err != nil {
			logAndFail(w, "search products", err)
			return
		}

		respondMessage(w, msg)
	}
}

func handleCompareProducts(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			respondError(w, http.StatusMethodNotAllowed, "Method not allowed")
			return
		}

		msg, err := tools.CompareProducts(r.Context(), db, r.URL.Query()["name"])
		if err != nil {
			logAndFail(w, "compare products", err)
			return
		}

		respondMessage(w, msg)
	}
}

func handleCart(db *sql.DB, sessions *session.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := resolveUser(r, sessions)
		if userID == "" {
			respondError(w, http.StatusUnauthorized, "No valid session")
			return
		}

		switch r.Method {
		case http.MethodGet:
			msg, err := tools.ViewCart(r.Context(), db, userID)
			if err != nil {
				logAndFail(w, "view cart", err)
				return
			}
			respondMessage(w, msg)

		case http.MethodDelete:
			msg, err := tools.ClearCart(r.Context(), db, userID)
			if err != nil {
				logAndFail(w, "clear cart", err)
				return
			}
			respondMessage(w, msg)

		default:
			respondError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	}
}

func handleCartItems(db *sql.DB, sessions *session.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			respondError(w, http.StatusMethodNotAllowed, "Method not allowed")
			return
		}

		userID := resolveUser(r, sessions)
		if userID == "" {
			respondError(w, http.StatusUnauthorized, "No valid session")
			return
		}

		var req struct {
			ProductID string `json:"product_id"`
			Quantity  int    `json:"quantity"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondError(w, http.StatusBadRequest, "Invalid request body")
			return
		}
		if req.Quantity == 0 {
			req.Quantity = 1
		}

		msg, err := tools.AddToCart(r.Context(), db, userID, req.ProductID, req.Quantity)
		if err != nil {
			logAndFail(w, "add to cart", err)
			return
		}

		respondMessage(w, msg)
	}
}

func handleCartItemByID(db *sql.DB, sessions *session.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodDelete {
			respondError(w, http.StatusMethodNotAllowed, "Method not allowed")
			return
		}

		userID := resolveUser(r, sessions)
		if userID == "" {
			respondError(w, http.StatusUnauthorized, "No valid session")
			return
		}

		productID := r.URL.Path[len("/cart/items/"):]
		if productID == "" {
			respondError(w, http.StatusBadRequest, "Missing product ID")
			return
		}

		msg, err := tools.RemoveFromCart(r.Context(), db, userID, productID)
		if err != nil {
			logAndFail(w, "remove from cart", err)
			return
		}

		respondMessage(w, msg)
	}
}

func handleCheckout(db *sql.DB, sessions *session.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			respondError(w, http.StatusMethodNotAllowed, "Method not allowed")
			return
		}

		userID := resolveUser(r, sessions)
		if userID == "" {
			respondError(w, http.StatusUnauthorized, "No valid session")
			return
		}

		msg, err := tools.Checkout(r.Context(), db, userID)
		if err != nil {
			logAndFail(w, "checkout", err)
			return
		}

		respondMessage(w, msg)
	}
}

func handleOrderByID(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			respondError(w, http.StatusMethodNotAllowed, "Method not allowed")
			return
		}

		idStr := r.URL.Path[len("/orders/"):]
		id, err := strconv.ParseInt(idStr, 10, 64)
		if err != nil {
			respondError(w, http.StatusBadRequest, "Invalid order ID")
			return
		}

		order, err := store.GetOrder(r.Context(), db, id)
		if err != nil {
			if err == database.ErrOrderNotFound {
				respondError(w, http.StatusNotFound, "Order not found")
				return
			}
			logAndFail(w, "get order", err)
			return
		}

		respondJSON(w, http.StatusOK, order)
	}
}

// logAndFail logs the full persistence error for operators and hands
// the caller a generic failure message.
func logAndFail(w http.ResponseWriter, op string, err error) {
	log.WithError(err).Errorf("Operation failed: %s", op)
	respondError(w, http.StatusInternalServerError, "Something went wrong, please try again later")
}

func respondMessage(w http.ResponseWriter, message string) {
	respondJSON(w, http.StatusOK, map[string]string{"message": message})
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.WithError(err).Error("Error encoding JSON response")
	}
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}
