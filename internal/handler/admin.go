package handler

import (
	"context"
	"log"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/user/cinemood/internal/middleware"
	"github.com/user/cinemood/internal/utils"
	"golang.org/x/crypto/bcrypt"
)

// adminLoginRequest 管理登录请求体
type adminLoginRequest struct {
	Password string `json:"password" binding:"required"`
}

// AdminLogin 管理登录，密码正确则下发管理 Token
func (h *Handler) AdminLogin(c *gin.Context) {
	var req adminLoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, "password 字段必填")
		return
	}

	if err := bcrypt.CompareHashAndPassword(h.Config.AdminPasswordHash, []byte(req.Password)); err != nil {
		utils.Unauthorized(c, "密码错误")
		return
	}

	token, err := middleware.GenerateToken("admin", h.Config.AppSecret, h.Config.JWTExpiry)
	if err != nil {
		utils.InternalServerError(c, "生成 Token 失败")
		return
	}

	c.SetCookie("token", token, int(h.Config.JWTExpiry.Seconds()), "/", "", false, true)
	utils.Success(c, gin.H{"token": token})
}

// AdminSync 触发片库同步（异步执行，立即返回）
func (h *Handler) AdminSync(c *gin.Context) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Minute)
		defer cancel()
		if _, err := h.Catalog.SyncTrending(ctx, h.Config.PoolSize*3); err != nil {
			log.Printf("[Admin] 片库同步失败: %v", err)
		}
	}()
	utils.SuccessWithMessage(c, "片库同步已开始", nil)
}

// AdminRebuildEmbeddings 触发向量重建（异步执行，立即返回）
func (h *Handler) AdminRebuildEmbeddings(c *gin.Context) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Minute)
		defer cancel()
		if _, err := h.Embedding.RebuildAll(ctx); err != nil {
			log.Printf("[Admin] 向量重建失败: %v", err)
		}
	}()
	utils.SuccessWithMessage(c, "向量重建已开始", nil)
}

// AdminCacheClean 清空全局缓存
func (h *Handler) AdminCacheClean(c *gin.Context) {
	utils.CacheClear()
	utils.SuccessWithMessage(c, "缓存已清空", nil)
}

// AdminStatus 片库概况
func (h *Handler) AdminStatus(c *gin.Context) {
	total, err := h.Repos.Movie.Count()
	if err != nil {
		utils.InternalServerError(c, "")
		return
	}
	embedded, err := h.Repos.Movie.CountEmbedded()
	if err != nil {
		utils.InternalServerError(c, "")
		return
	}
	utils.Success(c, gin.H{
		"movies":         total,
		"embedded":       embedded,
		"retrieval_mode": h.Config.RetrievalMode,
	})
}
