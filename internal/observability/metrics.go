package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RedisErrors counts Redis command failures, excluding redis.Nil.
	RedisErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "microblog_redis_errors_total",
		Help: "Total number of Redis errors by command",
	}, []string{"command"})

	// PostsCreated counts posts accepted by the post store.
	PostsCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "microblog_posts_created_total",
		Help: "Total number of posts created",
	})

	// FollowOperations counts follow and unfollow calls by outcome.
	FollowOperations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "microblog_follow_operations_total",
		Help: "Total follow graph operations by op and result",
	}, []string{"op", "result"})

	// UsersRegistered counts users created at first login.
	UsersRegistered = promauto.NewCounter(prometheus.CounterOpts{
		Name: "microblog_users_registered_total",
		Help: "Total number of registered users",
	})
)
