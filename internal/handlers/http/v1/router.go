package v1

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	gql "github.com/gfdmit/tierboard/internal/handlers/http/v1/graphql"
	"github.com/gfdmit/tierboard/internal/service"
)

// ActorHeader carries the id of the account a trusted front end resolved
// for the request. Without it the request is anonymous.
const ActorHeader = "X-Actor-Id"

func New(svc *service.Service) (*gin.Engine, error) {
	var (
		router = gin.New()
		h      = &boardHandler{svc: svc}
	)

	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token", ActorHeader},
		ExposeHeaders:    []string{"Link"},
		AllowCredentials: false,
		MaxAge:           300 * time.Second,
	}))
	router.MaxMultipartMemory = maxImageSize

	gqlHandler, err := gql.New(svc)
	if err != nil {
		return nil, err
	}

	apiGroup := router.Group("/api/v1")
	{
		apiGroup.Use(gin.Logger(), actor())

		apiGroup.Any("/graphql", gin.WrapH(gqlHandler))

		apiGroup.POST("/boards/:category", h.writeBoard)
		apiGroup.PUT("/boards/:category/:id", h.editBoard)
		apiGroup.GET("/boards/:category/:id/image", h.boardImage)

		apiGroup.GET("/ping", func(c *gin.Context) {
			c.Status(http.StatusOK)
		})
	}

	return router, nil
}

func actor() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := c.GetHeader(ActorHeader)
		if raw == "" {
			c.Next()
			return
		}
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id <= 0 {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid " + ActorHeader})
			return
		}
		c.Request = c.Request.WithContext(gql.WithActor(c.Request.Context(), id))
		c.Next()
	}
}
