package middleware

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"wellness_erp_v1_202609/internal/model"
)

// ==================== JWT 配置 ====================

// JWTConfig JWT 配置
type JWTConfig struct {
	SecretKey      string        // 签名密钥
	AccessTokenTTL time.Duration // Access Token 有效期
	Issuer         string        // 签发者
}

// DefaultJWTConfig 默认配置
func DefaultJWTConfig() *JWTConfig {
	return &JWTConfig{
		SecretKey:      "wellness-erp-secret-change-in-production",
		AccessTokenTTL: 12 * time.Hour,
		Issuer:         "wellness-erp",
	}
}

// 全局配置
var jwtConfig = DefaultJWTConfig()

// SetJWTConfig 设置 JWT 配置
func SetJWTConfig(cfg *JWTConfig) {
	jwtConfig = cfg
}

// ==================== Claims 定义 ====================

// StoreClaims 门店身份声明
type StoreClaims struct {
	StoreID    int64  `json:"store_id"`
	StoreLevel string `json:"store_level"`
	StoreName  string `json:"store_name"`
	StoreType  string `json:"store_type"`
	Permission string `json:"permission"`
	StaffID    int64  `json:"staff_id"`
	jwt.RegisteredClaims
}

// IsAdmin admin 权限或总部门店视为管理员
func (c *StoreClaims) IsAdmin() bool {
	return c.Permission == model.PermissionAdmin || c.StoreLevel == model.StoreLevelHeadquarters
}

// ==================== Token 生成 / 解析 ====================

// GenerateAccessToken 生成 Access Token
func GenerateAccessToken(c StoreClaims) (string, error) {
	now := time.Now()
	c.RegisteredClaims = jwt.RegisteredClaims{
		Issuer:    jwtConfig.Issuer,
		Subject:   "access",
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(jwtConfig.AccessTokenTTL)),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, &c)
	return token.SignedString([]byte(jwtConfig.SecretKey))
}

// ParseToken 解析 Token
func ParseToken(tokenString string) (*StoreClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &StoreClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("invalid signing method")
		}
		return []byte(jwtConfig.SecretKey), nil
	})

	if err != nil {
		return nil, err
	}

	if claims, ok := token.Claims.(*StoreClaims); ok && token.Valid {
		return claims, nil
	}

	return nil, errors.New("invalid token")
}

// ==================== Gin 中间件 ====================

// Context Keys
const (
	ContextKeyClaims = "store_claims"
)

// JWTAuth 认证中间件
// 优先取 Bearer token；兼容老前端的 X-Store-* 头部回退分支
func JWTAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			// 兼容分支: 老前端用 X-Store-* 头部携带身份
			if claims := claimsFromLegacyHeaders(c); claims != nil {
				c.Set(ContextKeyClaims, claims)
				c.Next()
				return
			}
			c.JSON(http.StatusUnauthorized, gin.H{
				"code":    401,
				"message": "未提供认证信息",
			})
			c.Abort()
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			c.JSON(http.StatusUnauthorized, gin.H{
				"code":    401,
				"message": "认证格式错误，应为 Bearer {token}",
			})
			c.Abort()
			return
		}

		claims, err := ParseToken(parts[1])
		if err != nil {
			message := "Token 无效"
			if errors.Is(err, jwt.ErrTokenExpired) {
				message = "Token 已过期"
			}
			c.JSON(http.StatusUnauthorized, gin.H{
				"code":    401,
				"message": message,
			})
			c.Abort()
			return
		}

		if claims.Subject != "access" {
			c.JSON(http.StatusUnauthorized, gin.H{
				"code":    401,
				"message": "Token 类型错误",
			})
			c.Abort()
			return
		}

		c.Set(ContextKeyClaims, claims)
		c.Next()
	}
}

// claimsFromLegacyHeaders 从 X-Store-* 头部构造身份，字段不全返回 nil
func claimsFromLegacyHeaders(c *gin.Context) *StoreClaims {
	storeIDStr := c.GetHeader("X-Store-Id")
	if storeIDStr == "" {
		return nil
	}
	storeID, err := strconv.ParseInt(storeIDStr, 10, 64)
	if err != nil {
		return nil
	}
	staffID, _ := strconv.ParseInt(c.GetHeader("X-Store-Staff-Id"), 10, 64)
	return &StoreClaims{
		StoreID:    storeID,
		StoreLevel: c.GetHeader("X-Store-Level"),
		StoreName:  c.GetHeader("X-Store-Name"),
		StoreType:  c.GetHeader("X-Store-Type"),
		Permission: c.GetHeader("X-Store-Permission"),
		StaffID:    staffID,
	}
}

// GetClaims 从 gin context 取身份，拿不到返回 nil
func GetClaims(c *gin.Context) *StoreClaims {
	if v, exists := c.Get(ContextKeyClaims); exists {
		if claims, ok := v.(*StoreClaims); ok {
			return claims
		}
	}
	return nil
}

// RequireAdmin 管理员权限校验中间件
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := GetClaims(c)
		if claims == nil || !claims.IsAdmin() {
			c.JSON(http.StatusForbidden, gin.H{
				"code":    403,
				"message": "需要管理员权限",
			})
			c.Abort()
			return
		}
		c.Next()
	}
}

// RejectTherapistWrite 理疗师在写接口上只读
func RejectTherapistWrite() gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := GetClaims(c)
		if claims != nil && claims.Permission == model.PermissionTherapist &&
			c.Request.Method != http.MethodGet {
			c.JSON(http.StatusForbidden, gin.H{
				"code":    403,
				"message": "当前角色无写入权限",
			})
			c.Abort()
			return
		}
		c.Next()
	}
}
