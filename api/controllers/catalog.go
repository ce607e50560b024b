package controllers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/angelmondragon/storefront-backend/api/middleware"
	"github.com/angelmondragon/storefront-backend/api/responses"
	"github.com/angelmondragon/storefront-backend/api/validators"
	"github.com/angelmondragon/storefront-backend/internal/catalog"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/angelmondragon/storefront-backend/pkg/pagination"
)

const (
	maxSearchLength    = 200
	defaultFeaturedCap = 10
)

// CatalogFilter dispatches to one of the three query modes. The first mode
// whose parameters are non-blank wins: category+product, then search, then
// featured line.
func CatalogFilter(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg, "catalog")
			return
		}
		viewer := middleware.UserIDFromContext(r.Context())

		params, err := validators.ParsePagination(r, "skip", pagination.DefaultLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		query := r.URL.Query()
		category := validators.QueryString(r, "category", 120)
		search := validators.QueryString(r, "search_str", maxSearchLength)

		var view *catalog.View
		switch {
		case category != "" && strings.TrimSpace(query.Get("product_id")) != "":
			productID, perr := validators.ParseQueryUUID(r, "product_id")
			if perr != nil {
				responses.WriteError(r.Context(), logg, w, perr)
				return
			}
			view, err = svc.ByCategoryProduct(r.Context(), category, productID, params, viewer)
		case search != "":
			view, err = svc.Search(r.Context(), search, params, viewer)
		case strings.TrimSpace(query.Get("featured_prod_id")) != "":
			lineID, perr := validators.ParseQueryUUID(r, "featured_prod_id")
			if perr != nil {
				responses.WriteError(r.Context(), logg, w, perr)
				return
			}
			view, err = svc.ByFeaturedLine(r.Context(), lineID, params, viewer)
		default:
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "no filter parameters provided"))
			return
		}
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, catalog.FilterResult{
			View:       *view,
			Pagination: pagination.NewPage(params, view.TotalCount),
		})
	}
}

func CatalogCategories(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg, "catalog")
			return
		}
		categories, err := svc.Categories(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, categories)
	}
}

func CatalogPopular(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg, "catalog")
			return
		}
		popular, err := svc.Popular(r.Context(), middleware.UserIDFromContext(r.Context()))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, popular)
	}
}

func CatalogFeatured(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg, "catalog")
			return
		}
		limit, err := validators.ParseQueryInt(r, "limit", defaultFeaturedCap, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		featured, err := svc.Featured(r.Context(), limit, middleware.UserIDFromContext(r.Context()))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, featured)
	}
}

func CatalogVariant(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg, "catalog")
			return
		}
		slug := strings.TrimSpace(chi.URLParam(r, "slug"))
		if slug == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "slug is required"))
			return
		}
		detail, err := svc.VariantBySlug(r.Context(), slug, middleware.UserIDFromContext(r.Context()))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, detail)
	}
}
