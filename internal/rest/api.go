package rest

import (
	"embed"
	"html/template"
	"net/http"

	"github.com/gin-gonic/gin"
)

//go:embed templates/*.html
var templateFS embed.FS

// Templates parses the embedded page templates. Pages declare lang as their
// document language.
func Templates(lang string) (*template.Template, error) {
	return template.New("").
		Funcs(template.FuncMap{"lang": func() string { return lang }}).
		ParseFS(templateFS, "templates/*.html")
}

// WebhookRoutes is implemented by handlers that register their own routes.
type WebhookRoutes interface {
	RegisterRoutes(r gin.IRoutes)
}

func NewApi(router *gin.Engine, posts *PostsHandler, webhook WebhookRoutes, metrics http.Handler) error {
	tmpl, err := Templates(posts.lang)
	if err != nil {
		return err
	}
	router.SetHTMLTemplate(tmpl)

	router.GET("/", posts.GetIndex)
	router.GET("/post/:slug", posts.GetPost)

	apiV1 := router.Group("api")
	{
		apiV1.GET("/posts", posts.GetPostsPage)
		apiV1.GET("/pages/*path", posts.GetPage)
	}

	if webhook != nil {
		webhook.RegisterRoutes(router)
	}

	if metrics != nil {
		router.GET("/metrics", gin.WrapH(metrics))
	}

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	return nil
}
