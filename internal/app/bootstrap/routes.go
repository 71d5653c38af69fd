// internal/app/bootstrap/routes.go
package bootstrap

import (
	"net/http"

	"github.com/dalemusser/waffle/config"
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	applicationsfeature "github.com/peterdrier/volunteerhub/internal/app/features/applications"
	auditlogfeature "github.com/peterdrier/volunteerhub/internal/app/features/auditlog"
	consentsfeature "github.com/peterdrier/volunteerhub/internal/app/features/consents"
	healthfeature "github.com/peterdrier/volunteerhub/internal/app/features/health"
	loginfeature "github.com/peterdrier/volunteerhub/internal/app/features/login"
	logoutfeature "github.com/peterdrier/volunteerhub/internal/app/features/logout"
	membershipfeature "github.com/peterdrier/volunteerhub/internal/app/features/membership"
	rolesfeature "github.com/peterdrier/volunteerhub/internal/app/features/roles"
	teamsfeature "github.com/peterdrier/volunteerhub/internal/app/features/teams"

	"github.com/peterdrier/volunteerhub/internal/app/decision"
	applicationstore "github.com/peterdrier/volunteerhub/internal/app/store/applications"
	"github.com/peterdrier/volunteerhub/internal/app/store/audit"
	consentstore "github.com/peterdrier/volunteerhub/internal/app/store/consents"
	documentstore "github.com/peterdrier/volunteerhub/internal/app/store/documents"
	rolestore "github.com/peterdrier/volunteerhub/internal/app/store/roles"
	teammemberstore "github.com/peterdrier/volunteerhub/internal/app/store/teammembers"
	teamstore "github.com/peterdrier/volunteerhub/internal/app/store/teams"
	userstore "github.com/peterdrier/volunteerhub/internal/app/store/users"
	votestore "github.com/peterdrier/volunteerhub/internal/app/store/votes"
	"github.com/peterdrier/volunteerhub/internal/app/system/auth"
	"github.com/peterdrier/volunteerhub/internal/app/system/dispatch"
	"github.com/peterdrier/volunteerhub/internal/app/system/teamsync"
)

// BuildHandler constructs the root HTTP handler (router) for this WAFFLE
// app.
//
// WAFFLE calls this after configuration, DB connections, schema setup, and
// the Startup hook have completed. VolunteerHub wires the stores, the
// compliance resolver, the decision state machine, and the intent
// dispatcher, then mounts a JSON feature router for each surface.
func BuildHandler(coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) (http.Handler, error) {
	secure := coreCfg.Env == "prod"
	sessionMgr, err := auth.NewSessionManager(appCfg.SessionKey, appCfg.SessionName, appCfg.SessionDomain, appCfg.SessionMaxAge, secure, logger)
	if err != nil {
		logger.Error("session manager init failed", zap.Error(err))
		return nil, err
	}

	db := deps.MongoDatabase
	users := userstore.New(db)
	roles := rolestore.New(db)
	teams := teamstore.New(db)
	teamMembers := teammemberstore.New(db)
	documents := documentstore.New(db)
	consents := consentstore.New(db)
	applications := applicationstore.New(db)
	votes := votestore.New(db)

	resolver := newResolver(deps)
	auditLogger := newAuditLogger(deps, logger)
	machine := decision.New(applications, votes, users, auditLogger, logger)

	syncer := teamsync.NewSyncer(teams, teamMembers, logger)
	dispatcher := dispatch.New(users, buildMailer(appCfg, logger), syncer, appCfg.SiteName, logger)

	r := chi.NewRouter()

	// Loads SessionUser into context when a session cookie is present.
	r.Use(sessionMgr.LoadSessionUser)

	healthHandler := healthfeature.NewHandler(deps.MongoClient, logger)
	r.Mount("/health", healthfeature.Routes(healthHandler))

	r.Handle("/metrics", promhttp.Handler())

	loginHandler := loginfeature.NewHandler(users, roles, sessionMgr, logger)
	r.Mount("/login", loginfeature.Routes(loginHandler))

	logoutHandler := logoutfeature.NewHandler(sessionMgr, logger)
	r.Mount("/logout", logoutfeature.Routes(logoutHandler))

	membershipHandler := membershipfeature.NewHandler(resolver, logger)
	r.Mount("/membership", membershipfeature.Routes(membershipHandler, sessionMgr))

	applicationsHandler := applicationsfeature.NewHandler(applications, votes, machine, dispatcher, auditLogger, logger)
	r.Mount("/applications", applicationsfeature.Routes(applicationsHandler, sessionMgr))

	consentsHandler := consentsfeature.NewHandler(consents, documents, resolver, auditLogger, logger)
	r.Mount("/consents", consentsfeature.Routes(consentsHandler, sessionMgr))

	teamsHandler := teamsfeature.NewHandler(teams, teamMembers, auditLogger, logger)
	r.Mount("/teams", teamsfeature.Routes(teamsHandler, sessionMgr))

	rolesHandler := rolesfeature.NewHandler(roles, auditLogger, logger)
	r.Mount("/roles", rolesfeature.Routes(rolesHandler, sessionMgr))

	auditHandler := auditlogfeature.NewHandler(audit.New(db), logger)
	r.Mount("/audit", auditlogfeature.Routes(auditHandler, sessionMgr))

	return r, nil
}
