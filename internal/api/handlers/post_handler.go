package handlers

import (
	"context"

	"github.com/gofiber/fiber/v2"
	"github.com/maheshrc27/postpilot/internal/models"
	"github.com/maheshrc27/postpilot/internal/service"
	"github.com/maheshrc27/postpilot/internal/transfer"
)

type PostHandler struct {
	s service.PostService
}

func NewPostHandler(service service.PostService) *PostHandler {
	return &PostHandler{s: service}
}

func (h *PostHandler) CreateDraft(c *fiber.Ctx) error {
	var req transfer.DraftCreation
	if err := ParseBody(c, &req); err != nil {
		return respondError(c, err)
	}

	post, err := h.s.CreateDraft(c.Context(), GetUserID(c), &req)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(transfer.NewPostResponse(post))
}

func (h *PostHandler) ListPosts(c *fiber.Ctx) error {
	brandID := c.QueryInt("brand_id", 0)
	if brandID <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "brand_id is required",
		})
	}

	posts, err := h.s.List(c.Context(), GetUserID(c), int64(brandID), c.Query("status"))
	if err != nil {
		return respondError(c, err)
	}

	resp := make([]*transfer.PostResponse, 0, len(posts))
	for _, p := range posts {
		resp = append(resp, transfer.NewPostResponse(p))
	}
	return c.JSON(resp)
}

func (h *PostHandler) GetPost(c *fiber.Ctx) error {
	postID, err := ParamID(c, "id")
	if err != nil {
		return respondError(c, err)
	}

	post, err := h.s.Get(c.Context(), GetUserID(c), postID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(transfer.NewPostResponse(post))
}

func (h *PostHandler) Schedule(c *fiber.Ctx) error {
	postID, err := ParamID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	var req transfer.ScheduleRequest
	if err := ParseBody(c, &req); err != nil {
		return respondError(c, err)
	}

	post, err := h.s.Schedule(c.Context(), GetUserID(c), postID, &req)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(transfer.NewPostResponse(post))
}

func (h *PostHandler) EditPost(c *fiber.Ctx) error {
	postID, err := ParamID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	var req transfer.PostEdit
	if err := ParseBody(c, &req); err != nil {
		return respondError(c, err)
	}

	post, err := h.s.Edit(c.Context(), GetUserID(c), postID, &req)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(transfer.NewPostResponse(post))
}

func (h *PostHandler) RemovePost(c *fiber.Ctx) error {
	postID, err := ParamID(c, "id")
	if err != nil {
		return respondError(c, err)
	}

	if err := h.s.Delete(c.Context(), GetUserID(c), postID); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *PostHandler) PostNow(c *fiber.Ctx) error {
	return h.dispatch(c, h.s.PostNow)
}

func (h *PostHandler) Retry(c *fiber.Ctx) error {
	return h.dispatch(c, h.s.Retry)
}

type dispatchFunc func(ctx context.Context, userID, postID int64, confirm bool) (*service.PublishResult, error)

// dispatch runs a synchronous publish. When the attempt reached the
// publishing workflow the response carries the post as it now stands.
func (h *PostHandler) dispatch(c *fiber.Ctx, run dispatchFunc) error {
	postID, err := ParamID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	var req transfer.PostNowRequest
	if err := ParseBody(c, &req); err != nil {
		return respondError(c, err)
	}

	// fasthttp cancels this context on shutdown only, not on client disconnect.
	result, err := run(c.Context(), GetUserID(c), postID, req.Confirm)
	if err != nil {
		if result == nil {
			return respondError(c, err)
		}
		return c.Status(ErrorStatus(err)).JSON(fiber.Map{
			"error":      err.Error(),
			"attempt_id": result.AttemptID,
			"post":       transfer.NewPostResponse(result.Post),
		})
	}

	return c.JSON(fiber.Map{
		"attempt_id": result.AttemptID,
		"post":       transfer.NewPostResponse(result.Post),
		"results":    result.Outcomes,
	})
}

func (h *PostHandler) Reconcile(c *fiber.Ctx) error {
	postID, err := ParamID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	var req transfer.ReconcileRequest
	if err := ParseBody(c, &req); err != nil {
		return respondError(c, err)
	}

	post, err := h.s.Reconcile(c.Context(), GetUserID(c), postID, &req)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(transfer.NewPostResponse(post))
}

func (h *PostHandler) History(c *fiber.Ctx) error {
	postID, err := ParamID(c, "id")
	if err != nil {
		return respondError(c, err)
	}

	history, err := h.s.History(c.Context(), GetUserID(c), postID)
	if err != nil {
		return respondError(c, err)
	}
	if history == nil {
		history = []*models.PostingHistory{}
	}
	return c.JSON(history)
}
