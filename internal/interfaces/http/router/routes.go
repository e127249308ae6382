package router

import (
	"github.com/gin-gonic/gin"
	"github.com/valtimo-platform/valtimo-backend-libraries-sub003/internal/interfaces/http/handler"
)

// Handlers holds every HTTP handler of the API
type Handlers struct {
	System               *handler.SystemHandler
	Auth                 *handler.AuthHandler
	Users                *handler.UserHandler
	NotificationSettings *handler.NotificationSettingsHandler
	Audit                *handler.AuditHandler
	Definitions          *handler.DocumentDefinitionHandler
	Documents            *handler.DocumentHandler
	SearchFields         *handler.SearchFieldHandler
	Resources            *handler.ResourceHandler
	Forms                *handler.FormHandler
	FormAssociations     *handler.FormAssociationHandler
	ProcessDocuments     *handler.ProcessDocumentHandler
	Milestones           *handler.MilestoneHandler
	ViewConfigs          *handler.ViewConfigHandler
}

// RegisterAPI builds the domain groups of every module. admin guards the
// configuration endpoints.
func RegisterAPI(r *Router, h Handlers, admin gin.HandlerFunc) {
	r.Register(NewDomainGroup("system", "/system").
		GET("/info", h.System.GetSystemInfo).
		GET("/ping", h.System.Ping))

	user := NewDomainGroup("user", "/user")
	user.GET("/authorities", h.Auth.Authorities)
	user.POST("/logout", h.Auth.Logout)
	r.Register(user)

	r.Register(NewDomainGroup("users", "/users").
		GET("", h.Users.List).
		GET("/:id", h.Users.Get).
		GET("/email/:email", h.Users.GetByEmail).
		GET("/authority/:authority", h.Users.ByAuthority))
	r.Register(NewDomainGroup("account", "/account").
		GET("", h.Users.Account))

	r.Register(NewDomainGroup("notification-settings", "/email-notification-settings").
		GET("", h.NotificationSettings.Get).
		PUT("", h.NotificationSettings.Update))

	r.Register(NewDomainGroup("document-definition", "/document-definition").
		GET("", h.Definitions.List).
		POST("", admin, h.Definitions.Deploy).
		GET("/:name", h.Definitions.GetLatest).
		DELETE("/:name", admin, h.Definitions.Delete).
		GET("/:name/version/:version", h.Definitions.GetVersion))

	r.Register(NewDomainGroup("document", "/document").
		POST("", h.Documents.Create).
		PUT("", h.Documents.Modify).
		GET("/:id", h.Documents.Get).
		DELETE("/:id", h.Documents.Delete).
		POST("/:id/assign", h.Documents.Assign).
		POST("/:id/unassign", h.Documents.Unassign).
		POST("/:id/resource/:resourceId", h.Documents.AddResource).
		DELETE("/:id/resource/:resourceId", h.Documents.RemoveResource).
		GET("/:id/audit", h.Audit.ByDocument))

	search := NewDomainGroup("document-search", "/document-search")
	search.POST("", h.Documents.Search)
	search.POST("/:name", h.Documents.AdvancedSearch)
	search.Group("search-fields", "/:name/fields").
		GET("", h.SearchFields.List).
		POST("", admin, h.SearchFields.Create).
		PUT("/:key", admin, h.SearchFields.Update).
		DELETE("/:key", admin, h.SearchFields.Delete)
	r.Register(search)

	r.Register(NewDomainGroup("resource", "/resource").
		POST("", h.Resources.Upload).
		GET("/:id", h.Resources.Download).
		DELETE("/:id", h.Resources.Delete))

	r.Register(NewDomainGroup("form-management", "/form-management").
		GET("", h.Forms.List).
		POST("", admin, h.Forms.Create).
		GET("/exists/:name", h.Forms.Exists).
		GET("/:id", h.Forms.Get).
		PUT("/:id", admin, h.Forms.Modify).
		DELETE("/:id", admin, h.Forms.Delete))
	r.Register(NewDomainGroup("form", "/form").
		GET("/:name", h.Forms.Prefilled))

	processDocument := NewDomainGroup("process-document", "/process-document")
	processDocument.Group("definition", "/definition").
		GET("", h.ProcessDocuments.ListDefinitions).
		POST("", admin, h.ProcessDocuments.CreateDefinition).
		DELETE("", admin, h.ProcessDocuments.DeleteDefinition).
		GET("/document/:name", h.ProcessDocuments.ByDocumentDefinition).
		GET("/process/:key", h.ProcessDocuments.ByProcessDefinition)
	processDocument.Group("operation", "/operation").
		POST("/new-document-and-start-process", h.ProcessDocuments.NewDocumentAndStartProcess).
		POST("/modify-document-and-start-process", h.ProcessDocuments.ModifyDocumentAndStartProcess).
		POST("/modify-document-and-complete-task", h.ProcessDocuments.ModifyDocumentAndCompleteTask)
	processDocument.GET("/instance/document/:documentId", h.ProcessDocuments.InstancesByDocument)
	r.Register(processDocument)

	r.Register(NewDomainGroup("milestones", "/milestones").
		GET("", h.Milestones.List).
		POST("", admin, h.Milestones.Save).
		GET("/:id", h.Milestones.Get).
		DELETE("/:id", admin, h.Milestones.Delete).
		GET("/:id/flownodes", h.Milestones.FlowNodes))
	r.Register(NewDomainGroup("milestonesets", "/milestonesets").
		GET("", h.Milestones.ListSets).
		POST("", admin, h.Milestones.SaveSet).
		GET("/:id", h.Milestones.GetSet).
		DELETE("/:id", admin, h.Milestones.DeleteSet))

	r.Register(NewDomainGroup("view-config", "/view-config").
		GET("", h.ViewConfigs.List).
		POST("", admin, h.ViewConfigs.Create).
		GET("/views", h.ViewConfigs.Views).
		GET("/resolve", h.ViewConfigs.Resolve).
		PUT("/:id", admin, h.ViewConfigs.Update).
		DELETE("/:id", admin, h.ViewConfigs.Delete))

	r.RegisterUnversioned(NewDomainGroup("audit", "/audit").
		Use(admin).
		GET("", h.Audit.Search).
		GET("/:id", h.Audit.Get))

	association := NewDomainGroup("form-association", "/form-association")
	association.Group("associations", "/form-association").
		GET("", h.FormAssociations.List).
		POST("", admin, h.FormAssociations.Create).
		PUT("", admin, h.FormAssociations.Modify).
		DELETE("", admin, h.FormAssociations.Delete)
	association.GET("/form-definition", h.FormAssociations.FormDefinition)
	association.POST("/form-definition/submission", h.FormAssociations.Submit)
	r.RegisterUnversioned(association)
}
