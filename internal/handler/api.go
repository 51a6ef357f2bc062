package handler

import (
	"errors"
	"log"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/user/cinemood/internal/service"
	"github.com/user/cinemood/internal/utils"
)

// recommendRequest JSON API 请求体
type recommendRequest struct {
	Text string `json:"text" binding:"required,min=2,max=500"`
}

// RecommendAPI JSON 推荐接口
// 与页面入口共用一条流水线，输入不是情绪时返回 200 + not_a_mood 标记，
// 属用户侧状况而非接口错误
func (h *Handler) RecommendAPI(c *gin.Context) {
	var req recommendRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			utils.BadRequest(c, "text 字段必填，长度 2-500 字符")
			return
		}
		utils.BadRequest(c, "请求体格式错误")
		return
	}

	rec, err := h.Recommend.Recommend(c.Request.Context(), req.Text)
	if err != nil {
		if errors.Is(err, service.ErrNotAMood) {
			utils.Success(c, gin.H{
				"not_a_mood": true,
				"movies":     []interface{}{},
			})
			return
		}
		log.Printf("[API] 推荐失败: %v", err)
		utils.InternalServerError(c, "")
		return
	}

	utils.Success(c, gin.H{
		"not_a_mood": false,
		"moods":      rec.Moods,
		"keywords":   rec.Keywords,
		"best_guess": rec.BestGuess,
		"movies":     rec.Movies,
	})
}
