package controllers

import (
	"encoding/json"
	"errors"

	"github.com/gofiber/fiber/v3"
	"github.com/rs/zerolog/log"

	"github.com/docktree/docktree/internal/domain"
	"github.com/docktree/docktree/internal/middlewares"
)

// TreeController exposes the folder/file tree over HTTP. It translates
// requests into manager calls and domain errors into statuses; all tree
// semantics live in the managers.
type TreeController struct {
	treeManager    domain.TreeManager
	contentManager domain.ContentManager
}

type TreeControllerDependencies struct {
	TreeManager    domain.TreeManager
	ContentManager domain.ContentManager
}

func NewTreeController(deps TreeControllerDependencies) *TreeController {
	return &TreeController{
		treeManager:    deps.TreeManager,
		contentManager: deps.ContentManager,
	}
}

type createNodeRequest struct {
	ParentID       string          `json:"parent_id"`
	WorkspaceAlias string          `json:"workspace_alias"`
	Name           string          `json:"name"`
	Content        json.RawMessage `json:"content"`
}

func (c *TreeController) createNode(ctx fiber.Ctx, kind domain.NodeKind) error {
	var req createNodeRequest
	if err := ctx.Bind().Body(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}

	principal := middlewares.Principal(ctx)

	root := domain.RootDescriptor{Scope: domain.PathScopeUser, Owner: principal}
	if req.WorkspaceAlias != "" {
		root = domain.RootDescriptor{Scope: domain.PathScopeWorkspace, Owner: req.WorkspaceAlias}
	}

	params := domain.CreateNodeParams{
		Principal: principal,
		ParentID:  req.ParentID,
		Root:      root,
		Name:      req.Name,
		Kind:      kind,
	}
	if kind == domain.NodeKindFile && len(req.Content) > 0 {
		params.Content = req.Content
	}

	node, err := c.treeManager.Create(ctx.RequestCtx(), params)
	if err != nil {
		return domainError(err)
	}

	return ctx.Status(fiber.StatusCreated).JSON(node)
}

func (c *TreeController) CreateFolder(ctx fiber.Ctx) error {
	return c.createNode(ctx, domain.NodeKindFolder)
}

func (c *TreeController) CreateFile(ctx fiber.Ctx) error {
	return c.createNode(ctx, domain.NodeKindFile)
}

func (c *TreeController) GetNode(ctx fiber.Ctx) error {
	node, err := c.treeManager.GetByID(ctx.RequestCtx(), ctx.Params("nodeID"))
	if err != nil {
		return domainError(err)
	}

	return ctx.JSON(node)
}

type getByPathRequest struct {
	Path string `json:"path"`
}

func (c *TreeController) GetNodeByPath(ctx fiber.Ctx) error {
	var req getByPathRequest
	if err := ctx.Bind().Body(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}

	node, err := c.treeManager.GetByPath(ctx.RequestCtx(), req.Path)
	if err != nil {
		return domainError(err)
	}

	return ctx.JSON(node)
}

func (c *TreeController) ListChildren(ctx fiber.Ctx) error {
	children, err := c.treeManager.ListChildren(ctx.RequestCtx(), ctx.Params("nodeID"))
	if err != nil {
		return domainError(err)
	}

	return ctx.JSON(fiber.Map{"children": children})
}

type renameRequest struct {
	Name string `json:"name"`
}

func (c *TreeController) RenameNode(ctx fiber.Ctx) error {
	var req renameRequest
	if err := ctx.Bind().Body(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}

	node, err := c.treeManager.Rename(ctx.RequestCtx(), domain.RenameNodeParams{
		Principal: middlewares.Principal(ctx),
		NodeID:    ctx.Params("nodeID"),
		NewName:   req.Name,
	})
	if err != nil {
		return domainError(err)
	}

	return ctx.JSON(node)
}

type moveRequest struct {
	DestinationID string `json:"destination_id"`
}

func (c *TreeController) MoveNode(ctx fiber.Ctx) error {
	var req moveRequest
	if err := ctx.Bind().Body(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}

	node, err := c.treeManager.Move(ctx.RequestCtx(), domain.MoveNodeParams{
		Principal:     middlewares.Principal(ctx),
		SourceID:      ctx.Params("nodeID"),
		DestinationID: req.DestinationID,
	})
	if err != nil {
		return domainError(err)
	}

	return ctx.JSON(node)
}

type saveContentRequest struct {
	Content json.RawMessage `json:"content"`
}

func (c *TreeController) SaveFileContent(ctx fiber.Ctx) error {
	var req saveContentRequest
	if err := ctx.Bind().Body(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}

	node, err := c.treeManager.SaveFileContent(ctx.RequestCtx(), domain.SaveFileContentParams{
		Principal: middlewares.Principal(ctx),
		NodeID:    ctx.Params("nodeID"),
		Content:   req.Content,
	})
	if err != nil {
		return domainError(err)
	}

	return ctx.JSON(node)
}

func (c *TreeController) ReadFile(ctx fiber.Ctx) error {
	result, err := c.treeManager.ReadFile(ctx.RequestCtx(), domain.ReadFileParams{
		Principal: middlewares.Principal(ctx),
		NodeID:    ctx.Params("nodeID"),
	})
	if err != nil {
		return domainError(err)
	}

	return ctx.JSON(result)
}

func (c *TreeController) ListFileHistory(ctx fiber.Ctx) error {
	entries, err := c.contentManager.ListHistory(ctx.RequestCtx(), ctx.Params("nodeID"))
	if err != nil {
		return domainError(err)
	}

	return ctx.JSON(fiber.Map{"history": entries})
}

func (c *TreeController) GetUserFolder(ctx fiber.Ctx) error {
	folder, err := c.treeManager.GetUserFolder(ctx.RequestCtx(), middlewares.Principal(ctx))
	if err != nil {
		return domainError(err)
	}

	return ctx.JSON(folder)
}

func (c *TreeController) GetWorkspaceFolder(ctx fiber.Ctx) error {
	node, err := c.treeManager.GetWorkspaceFolder(ctx.RequestCtx(), ctx.Params("alias"), middlewares.Principal(ctx))
	if err != nil {
		return domainError(err)
	}

	return ctx.JSON(node)
}

// domainError maps the domain error taxonomy onto HTTP statuses.
func domainError(err error) error {
	switch {
	case errors.Is(err, domain.ErrNodeNotFound),
		errors.Is(err, domain.ErrContentNotFound),
		errors.Is(err, domain.ErrWorkspaceNotFound):
		return fiber.NewError(fiber.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrPathExists):
		return fiber.NewError(fiber.StatusConflict, err.Error())
	case errors.Is(err, domain.ErrForbidden):
		return fiber.NewError(fiber.StatusForbidden, err.Error())
	case errors.Is(err, domain.ErrInvalidPath),
		errors.Is(err, domain.ErrInvalidNodeName),
		errors.Is(err, domain.ErrNotAFolder),
		errors.Is(err, domain.ErrNotAFile),
		errors.Is(err, domain.ErrMoveIntoDescendant),
		errors.Is(err, domain.ErrRootNotRenamable):
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	default:
		log.Error().Err(err).Msg("Unexpected error")
		return fiber.NewError(fiber.StatusInternalServerError, "Internal error")
	}
}
