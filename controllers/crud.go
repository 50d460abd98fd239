package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yeremiapane/restaurant-pos/apiclient"
	"github.com/yeremiapane/restaurant-pos/utils"
)

// The helpers below back the plain admin screens whose handlers differ
// only in the resource and the request body.

func listAll[T any](c *gin.Context, r *apiclient.Resource[T], message string) {
	items, err := r.List(c.Request.Context())
	if err != nil {
		utils.RespondUpstreamError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, message, items)
}

func getOne[T any](c *gin.Context, r *apiclient.Resource[T], message string) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	item, err := r.Get(c.Request.Context(), id)
	if err != nil {
		utils.RespondUpstreamError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, message, item)
}

func createOne[T any](c *gin.Context, r *apiclient.Resource[T], payload interface{}, message string) (T, bool) {
	created, err := r.Create(c.Request.Context(), payload)
	if err != nil {
		utils.RespondUpstreamError(c, err)
		return created, false
	}
	utils.RespondJSON(c, http.StatusCreated, message, created)
	return created, true
}

func patchOne[T any](c *gin.Context, r *apiclient.Resource[T], id int, fields interface{}, message string) (T, bool) {
	var (
		updated T
		err     error
	)
	if etag := c.GetHeader("If-Match"); etag != "" {
		updated, err = r.PatchIfMatch(c.Request.Context(), id, fields, etag)
	} else {
		updated, err = r.Patch(c.Request.Context(), id, fields)
	}
	if err != nil {
		utils.RespondUpstreamError(c, err)
		return updated, false
	}
	utils.RespondJSON(c, http.StatusOK, message, updated)
	return updated, true
}

func deleteOne[T any](c *gin.Context, r *apiclient.Resource[T], message string) (int, bool) {
	id, ok := paramID(c, "id")
	if !ok {
		return 0, false
	}
	if err := r.Delete(c.Request.Context(), id); err != nil {
		utils.RespondUpstreamError(c, err)
		return id, false
	}
	utils.RespondJSON(c, http.StatusOK, message, gin.H{"id": id})
	return id, true
}
