package routes

import (
	"net/http"

	"civicsync/controllers"
	"civicsync/models"

	"github.com/gin-gonic/gin"
)

type gate int

const (
	public gate = iota
	signedIn
	citizenOnly
	authorityOnly
	adminOnly
)

type viewRoute struct {
	method  string
	path    string
	gate    gate
	handler func(*controllers.ViewController, *gin.Context)
}

// viewTable is every HTML page and form post. Anything else falls back to "/".
var viewTable = []viewRoute{
	{http.MethodGet, "/", public, (*controllers.ViewController).Home},
	{http.MethodGet, "/login", public, (*controllers.ViewController).LoginPage},
	{http.MethodPost, "/login", public, (*controllers.ViewController).Login},
	{http.MethodGet, "/signup", public, (*controllers.ViewController).SignupPage},
	{http.MethodPost, "/signup", public, (*controllers.ViewController).Signup},
	{http.MethodGet, "/authority/login", public, (*controllers.ViewController).AuthorityLoginPage},
	{http.MethodPost, "/authority/login", public, (*controllers.ViewController).AuthorityLogin},
	{http.MethodPost, "/logout", public, (*controllers.ViewController).Logout},

	{http.MethodGet, "/issues", signedIn, (*controllers.ViewController).Issues},
	{http.MethodGet, "/issues/:id", signedIn, (*controllers.ViewController).Issue},
	{http.MethodPost, "/issues/:id/upvote", signedIn, (*controllers.ViewController).Upvote},
	{http.MethodPost, "/issues/:id/verify", signedIn, (*controllers.ViewController).Verify},
	{http.MethodPost, "/issues/:id/comments", signedIn, (*controllers.ViewController).Comment},
	{http.MethodGet, "/report", signedIn, (*controllers.ViewController).ReportPage},
	{http.MethodPost, "/report", signedIn, (*controllers.ViewController).Report},

	{http.MethodGet, "/dashboard/citizen", citizenOnly, (*controllers.ViewController).CitizenDashboard},
	{http.MethodGet, "/dashboard/authority", authorityOnly, (*controllers.ViewController).AuthorityDashboard},
	{http.MethodPost, "/dashboard/authority/issues/:id/status", authorityOnly, (*controllers.ViewController).UpdateStatus},
	{http.MethodGet, "/dashboard/admin", adminOnly, (*controllers.ViewController).AdminDashboard},
	{http.MethodPost, "/dashboard/admin/profiles/:id/role", adminOnly, (*controllers.ViewController).UpdateRole},
}

func (g gate) middleware(views *controllers.ViewController) gin.HandlerFunc {
	switch g {
	case signedIn:
		return views.RequireSession()
	case citizenOnly:
		return views.RequireRole(models.RoleCitizen)
	case authorityOnly:
		return views.RequireRole(models.RoleAuthority)
	case adminOnly:
		return views.RequireRole(models.RoleAdmin)
	default:
		return nil
	}
}

// ViewRoutes registers the route table.
func ViewRoutes(r *gin.Engine, views *controllers.ViewController) {
	for _, route := range viewTable {
		handler := route.handler
		handlers := []gin.HandlerFunc{}
		if mw := route.gate.middleware(views); mw != nil {
			handlers = append(handlers, mw)
		}
		handlers = append(handlers, func(c *gin.Context) { handler(views, c) })
		r.Handle(route.method, route.path, handlers...)
	}
}
