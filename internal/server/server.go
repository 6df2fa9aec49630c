// Package server Corkd
//
// Corkd is an off-chain service of the Cork Collective wine community. It
// serves the post feed, creates posts through the blob store upload pipeline
// and proxies chain state (balances, bottles, namespaces) behind TTL caches.
//
//     Schemes: https
//     BasePath: /v1
//     Version: 0.3.0
//
//     Produces:
//     - application/json
//     Consumes:
//     - application/json
//
// swagger:meta
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi"
	chimw "github.com/go-chi/chi/middleware"
	"github.com/go-chi/cors"

	"github.com/cork-collective/corkd/internal/cache"
	"github.com/cork-collective/corkd/internal/chain"
	"github.com/cork-collective/corkd/internal/compose"
	"github.com/cork-collective/corkd/internal/entities"
	"github.com/cork-collective/corkd/internal/feed"
	mm "github.com/cork-collective/corkd/internal/middleware"
	"github.com/cork-collective/corkd/internal/storage"
	"github.com/cork-collective/corkd/internal/telemetry"
)

//go:generate swagger generate spec -t swagger -m -c . -o ../../static/swagger.json

const maxBodySize = 8 << 20 // posts may carry a base64 image

const villagesCacheTTL = 10 * time.Minute

type server struct {
	s        storage.Storage
	feed     feed.API
	composer compose.Service
	chain    chain.API
	tl       *telemetry.Logger

	balances *cache.Store[*entities.Balance]
	bottles  *cache.Store[[]*entities.BottleNFT]
	profiles *cache.Store[*entities.Profile]
	txs      *cache.Store[[]*entities.Transaction]
	caches   cache.Group
}

// SetupRouter setups handlers to chi router.
func SetupRouter(s storage.Storage, f feed.API, c compose.Service, ch chain.API, tl *telemetry.Logger, r chi.Router, timeout time.Duration) {
	r.Use(
		mm.Logger,
		chimw.StripSlashes,
		cors.AllowAll().Handler,
		chimw.RequestID,
		chimw.Recoverer,
		chimw.Timeout(timeout),
		bodyLimiter(maxBodySize),
	)

	srv := newServer(s, f, c, ch, tl)

	r.Route("/v1", func(r chi.Router) {
		r.Get("/posts", srv.listPosts)
		r.Post("/posts", srv.createPost)
		r.Get("/posts/{id}", srv.getPost)
		r.Post("/posts/{id}/like", srv.likePost)

		r.Get("/profiles/{address}", srv.getProfile)
		r.Post("/profiles", srv.setProfile)

		r.Get("/villages", mm.Cached(villagesCacheTTL, srv.listVillages))
		r.Get("/villages/{id}", mm.Cached(villagesCacheTTL, srv.getVillage))

		r.Get("/wallets/{address}/balances", srv.getBalances)
		r.Get("/wallets/{address}/nfts", srv.listNFTs)
		r.Get("/wallets/{address}/transactions", srv.listTransactions)

		r.Post("/transactions", srv.createTransaction)
		r.Post("/namespaces", srv.registerNamespace)
		r.Post("/bottles/mint", srv.mintBottle)
		r.Post("/tokens/mint", srv.mintTokens)

		r.Post("/cache/reset", srv.resetCaches)
	})
}

func newServer(s storage.Storage, f feed.API, c compose.Service, ch chain.API, tl *telemetry.Logger) server {
	srv := server{
		s:        s,
		feed:     f,
		composer: c,
		chain:    ch,
		tl:       tl,
	}

	srv.balances = cache.New(cache.ChainTTL, func(ctx context.Context, address string) (*entities.Balance, error) {
		return ch.GetBalance(ctx, address)
	})
	srv.bottles = cache.New(cache.ChainTTL, func(ctx context.Context, address string) ([]*entities.BottleNFT, error) {
		return ch.ListBottles(ctx, address)
	})
	srv.profiles = cache.New(cache.ProfileTTL, func(ctx context.Context, address string) (*entities.Profile, error) {
		return s.GetProfile(ctx, address)
	})
	srv.txs = cache.New(cache.SyncTTL, func(ctx context.Context, address string) ([]*entities.Transaction, error) {
		return s.ListTransactions(ctx, address)
	})
	srv.caches = cache.Group{srv.balances, srv.bottles, srv.profiles, srv.txs}

	return srv
}

func bodyLimiter(size int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			r.Body = http.MaxBytesReader(w, r.Body, size)
			next.ServeHTTP(w, r)
		})
	}
}
