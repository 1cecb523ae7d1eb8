package grpc

import (
	"context"
	"net"
	"sync"
	"time"

	"github.com/dmitrijs2005/sessionkeeper/internal/common"
	"github.com/dmitrijs2005/sessionkeeper/internal/server/models"
	"golang.org/x/time/rate"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/peer"
	"google.golang.org/grpc/status"
)

type ctxKey struct{}

// IdentityFromContext returns the identity of the verified access token of
// a protected call.
func IdentityFromContext(ctx context.Context) (models.Identity, bool) {
	id, ok := ctx.Value(ctxKey{}).(models.Identity)
	return id, ok
}

var protectedMethods = map[string]bool{
	fullMethod("ResendVerifyEmail"): true,
	fullMethod("ChangePassword"):    true,
	fullMethod("GetMe"):             true,
}

var unlimitedMethods = map[string]bool{
	fullMethod("Ping"): true,
}

func (s *GRPCServer) accessTokenInterceptor(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
	if !protectedMethods[info.FullMethod] {
		return handler(ctx, req)
	}

	var accessToken string
	if md, ok := metadata.FromIncomingContext(ctx); ok {
		if values := md.Get(common.AccessTokenHeaderName); len(values) > 0 {
			accessToken = values[0]
		}
	}
	if accessToken == "" {
		return nil, status.Error(codes.Unauthenticated, "missing access token")
	}

	claims, err := s.tokens.VerifyAccess(accessToken)
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}

	return handler(context.WithValue(ctx, ctxKey{}, claims.Identity()), req)
}

func (s *GRPCServer) rateLimitInterceptor(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
	if s.limiter == nil || unlimitedMethods[info.FullMethod] {
		return handler(ctx, req)
	}
	if !s.limiter.Allow(peerKey(ctx)) {
		return nil, s.toStatus(ctx, common.ErrorRateLimited)
	}
	return handler(ctx, req)
}

func (s *GRPCServer) observeInterceptor(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
	start := time.Now()
	resp, err := handler(ctx, req)
	code := status.Code(err)

	if s.observer != nil {
		s.observer.ObserveRPC(info.FullMethod, code.String())
	}
	s.logger.Debug(ctx, "rpc", "method", info.FullMethod, "code", code.String(), "duration", time.Since(start))
	return resp, err
}

func peerKey(ctx context.Context) string {
	p, ok := peer.FromContext(ctx)
	if !ok || p.Addr == nil {
		return "unknown"
	}
	addr := p.Addr.String()
	if host, _, err := net.SplitHostPort(addr); err == nil {
		return host
	}
	return addr
}

// peerLimiter keeps one token bucket per peer. Buckets idle for longer than
// ttl are dropped.
type peerLimiter struct {
	mu        sync.Mutex
	limit     rate.Limit
	burst     int
	ttl       time.Duration
	now       func() time.Time
	lastSweep time.Time
	peers     map[string]*peerBucket
}

type peerBucket struct {
	limiter *rate.Limiter
	seen    time.Time
}

func newPeerLimiter(limit rate.Limit, burst int) *peerLimiter {
	if burst < 1 {
		burst = 1
	}
	return &peerLimiter{
		limit: limit,
		burst: burst,
		ttl:   10 * time.Minute,
		now:   time.Now,
		peers: make(map[string]*peerBucket),
	}
}

func (p *peerLimiter) Allow(key string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	now := p.now()
	if now.Sub(p.lastSweep) > p.ttl {
		for k, b := range p.peers {
			if now.Sub(b.seen) > p.ttl {
				delete(p.peers, k)
			}
		}
		p.lastSweep = now
	}

	b, ok := p.peers[key]
	if !ok {
		b = &peerBucket{limiter: rate.NewLimiter(p.limit, p.burst)}
		p.peers[key] = b
	}
	b.seen = now
	return b.limiter.AllowN(now, 1)
}
