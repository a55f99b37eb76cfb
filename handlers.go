package main

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"medscan/models"
	"medscan/pkg/match"
	"medscan/pkg/ocr"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

func setupRoutes(r *gin.Engine) {
	r.GET("/health", healthHandler)
	r.POST("/register", registerHandler)
	r.POST("/login", loginHandler)
	r.POST("/refresh", refreshHandler)
	r.POST("/revoke_refresh", revokeRefreshHandler)
	authGroup := r.Group("")
	authGroup.Use(jwtAuthMiddleware())
	authGroup.GET("/me", meHandler)
	authGroup.GET("/medicines", listMedicinesHandler)
	authGroup.GET("/medicines/:id", getMedicineHandler)
	authGroup.POST("/medicines", adminOnly(), createMedicineHandler)
	authGroup.PUT("/medicines/:id", adminOnly(), updateMedicineHandler)
	authGroup.DELETE("/medicines/:id", adminOnly(), deleteMedicineHandler)
	authGroup.POST("/medicines/search", searchMedicinesHandler)
	authGroup.POST("/medicines/search/fuzzy", fuzzySearchHandler)
	authGroup.POST("/ocr/process", ocrProcessHandler)
	authGroup.POST("/ocr/search", ocrSearchHandler)
}

func healthHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func jwtAuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" || len(authHeader) < 8 || authHeader[:7] != "Bearer " {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "missing or invalid Authorization header"})
			c.Abort()
			return
		}
		tokenString := authHeader[7:]
		token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, jwt.ErrInvalidKeyType
			}
			return jwtSecret, nil
		})
		if err != nil || !token.Valid {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			c.Abort()
			return
		}
		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid claims"})
			c.Abort()
			return
		}
		username, _ := claims["username"].(string)
		role, _ := claims["role"].(string)
		c.Set("username", username)
		if role != "" {
			c.Set("role", role)
		}
		c.Next()
	}
}

// adminOnly gates catalog mutation to the administrator role.
func adminOnly() gin.HandlerFunc {
	return func(c *gin.Context) {
		role, _ := c.Get("role")
		if role != "administrator" {
			c.JSON(http.StatusForbidden, gin.H{"error": "administrator role required"})
			c.Abort()
			return
		}
		c.Next()
	}
}

func meHandler(c *gin.Context) {
	usernameVal, _ := c.Get("username")
	if usernameVal == nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "context missing username"})
		return
	}
	username := usernameVal.(string)
	c.JSON(http.StatusOK, gin.H{"username": username})
}

// getUserFromContext fetches the currently authenticated user using the username set by jwtAuthMiddleware
func getUserFromContext(c *gin.Context) (*models.User, bool) {
	unameVal, _ := c.Get("username")
	if unameVal == nil {
		return nil, false
	}
	uname := unameVal.(string)
	var user models.User
	if err := db.Where("username = ?", uname).First(&user).Error; err != nil {
		return nil, false
	}
	return &user, true
}

func registerHandler(c *gin.Context) {
	var req struct {
		Username string `json:"username" binding:"required"`
		Email    string `json:"email"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := RegisterUser(req.Username, req.Email, req.Password); err != nil {
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "user registered successfully"})
}

func loginHandler(c *gin.Context) {
	var req struct {
		Username string `json:"username" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	user, err := Authenticate(req.Username, req.Password)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
		return
	}
	tokenString, err := signAccessToken(user, cfg.Auth.AccessTTL)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to generate token"})
		return
	}
	refreshToken, err := createAndStoreRefreshToken(user.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create refresh token"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "login successful", "token": tokenString, "refresh_token": refreshToken})
}

// signAccessToken issues an HS256 access token carrying username and role name.
func signAccessToken(user models.User, ttl time.Duration) (string, error) {
	roleName := ""
	if user.RoleID != nil {
		var r models.Role
		if err := db.First(&r, *user.RoleID).Error; err == nil {
			roleName = r.Name
		}
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"username": user.Username,
		"role":     roleName,
		"exp":      time.Now().Add(ttl).Unix(),
	})
	return token.SignedString(jwtSecret)
}

// createAndStoreRefreshToken generates a random refresh token, stores its hash with expiry and returns the raw token string
func createAndStoreRefreshToken(userID uint) (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	token := hex.EncodeToString(b)
	h := sha256.Sum256([]byte(token))
	th := hex.EncodeToString(h[:])
	rt := models.RefreshToken{UserID: userID, TokenHash: th, ExpiresAt: time.Now().Add(cfg.Auth.RefreshTTL)}
	if err := db.Create(&rt).Error; err != nil {
		return "", err
	}
	return token, nil
}

// helper to find refresh token record by raw token string
func findRefreshTokenByRaw(token string) (*models.RefreshToken, error) {
	h := sha256.Sum256([]byte(token))
	th := hex.EncodeToString(h[:])
	var rt models.RefreshToken
	if err := db.Where("token_hash = ?", th).First(&rt).Error; err != nil {
		return nil, err
	}
	return &rt, nil
}

// refreshHandler exchanges a refresh token for a new access token and rotates the refresh token
func refreshHandler(c *gin.Context) {
	var req struct {
		RefreshToken string `json:"refresh_token" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	rt, err := findRefreshTokenByRaw(req.RefreshToken)
	if err != nil || rt.Revoked || time.Now().After(rt.ExpiresAt) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired refresh token"})
		return
	}
	var user models.User
	if err := db.First(&user, rt.UserID).Error; err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not found"})
		return
	}
	tokenString, err := signAccessToken(user, 15*time.Minute)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to generate token"})
		return
	}
	// rotate refresh token: revoke existing and create new one
	db.Model(&models.RefreshToken{}).Where("id = ?", rt.ID).Update("revoked", true)
	newRT, err := createAndStoreRefreshToken(user.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to rotate refresh token"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"token": tokenString, "refresh_token": newRT})
}

// revokeRefreshHandler revokes a given refresh token (useful on logout)
func revokeRefreshHandler(c *gin.Context) {
	var req struct {
		RefreshToken string `json:"refresh_token" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	rt, err := findRefreshTokenByRaw(req.RefreshToken)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "refresh token not found"})
		return
	}
	rt.Revoked = true
	if err := db.Save(rt).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to revoke token"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "refresh token revoked"})
}

// listMedicinesHandler lists catalog entries with offset/limit pagination.
func listMedicinesHandler(c *gin.Context) {
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	var items []models.Medicine
	if err := db.Order("id").Offset(offset).Limit(limit).Find(&items).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
		return
	}
	c.JSON(http.StatusOK, items)
}

func getMedicineHandler(c *gin.Context) {
	var m models.Medicine
	if err := db.First(&m, c.Param("id")).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "medicine not found"})
		return
	}
	c.JSON(http.StatusOK, m)
}

type medicineRequest struct {
	BrandName    string `json:"brand_name" binding:"required"`
	GenericName  string `json:"generic_name" binding:"required"`
	Strength     string `json:"strength" binding:"required"`
	Manufacturer string `json:"manufacturer" binding:"required"`
	Uses         string `json:"uses"`
	SideEffects  string `json:"side_effects"`
	Warnings     string `json:"warnings"`
	Barcode      string `json:"barcode"`
	ImageURL     string `json:"image_url"`
}

func createMedicineHandler(c *gin.Context) {
	user, ok := getUserFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not found"})
		return
	}
	var req medicineRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	// barcode uniqueness is enforced here, empty barcodes stay duplicable
	if req.Barcode != "" {
		var existing models.Medicine
		if err := db.Where("barcode = ?", req.Barcode).First(&existing).Error; err == nil {
			c.JSON(http.StatusConflict, gin.H{"error": "barcode already registered"})
			return
		}
	}
	uid := user.ID
	m := models.Medicine{
		BrandName:    req.BrandName,
		GenericName:  req.GenericName,
		Strength:     req.Strength,
		Manufacturer: req.Manufacturer,
		Uses:         req.Uses,
		SideEffects:  req.SideEffects,
		Warnings:     req.Warnings,
		Barcode:      req.Barcode,
		ImageURL:     req.ImageURL,
		CreatedBy:    &uid,
	}
	if err := db.Create(&m).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "create failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": m.ID})
}

func updateMedicineHandler(c *gin.Context) {
	var m models.Medicine
	if err := db.First(&m, c.Param("id")).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "medicine not found"})
		return
	}
	var req medicineRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Barcode != "" && req.Barcode != m.Barcode {
		var existing models.Medicine
		if err := db.Where("barcode = ? AND id <> ?", req.Barcode, m.ID).First(&existing).Error; err == nil {
			c.JSON(http.StatusConflict, gin.H{"error": "barcode already registered"})
			return
		}
	}
	m.BrandName = req.BrandName
	m.GenericName = req.GenericName
	m.Strength = req.Strength
	m.Manufacturer = req.Manufacturer
	m.Uses = req.Uses
	m.SideEffects = req.SideEffects
	m.Warnings = req.Warnings
	m.Barcode = req.Barcode
	m.ImageURL = req.ImageURL
	if err := db.Save(&m).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "update failed"})
		return
	}
	c.JSON(http.StatusOK, m)
}

func deleteMedicineHandler(c *gin.Context) {
	var m models.Medicine
	if err := db.First(&m, c.Param("id")).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "medicine not found"})
		return
	}
	if err := db.Delete(&m).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "delete failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "medicine deleted"})
}

// searchMedicinesHandler does a plain substring search across name and manufacturer columns.
func searchMedicinesHandler(c *gin.Context) {
	user, _ := getUserFromContext(c)
	var req struct {
		Query string `json:"query" binding:"required"`
		Limit int    `json:"limit"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	limit := req.Limit
	if limit <= 0 || limit > 100 {
		limit = cfg.Match.DefaultLimit
	}
	pattern := "%" + req.Query + "%"
	var items []models.Medicine
	err := db.Where("brand_name ILIKE ? OR generic_name ILIKE ? OR manufacturer ILIKE ?", pattern, pattern, pattern).
		Order("id").Limit(limit).Find(&items).Error
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
		return
	}
	logSearch(user, req.Query, "text", len(items), "", 0)
	c.JSON(http.StatusOK, items)
}

// fuzzySearchHandler runs the full matching pipeline against raw query text.
func fuzzySearchHandler(c *gin.Context) {
	user, _ := getUserFromContext(c)
	var req struct {
		Query string `json:"query" binding:"required"`
		Limit int    `json:"limit"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	limit := req.Limit
	if limit <= 0 || limit > 100 {
		limit = cfg.Match.DefaultLimit
	}
	results := scanSvc.SearchByText(c.Request.Context(), req.Query, limit)
	top := 0.0
	topStrategy := ""
	if len(results) > 0 {
		top = results[0].Confidence
		topStrategy = string(results[0].Strategy)
	}
	logSearch(user, req.Query, "fuzzy", len(results), topStrategy, top)
	c.JSON(http.StatusOK, gin.H{"query": req.Query, "results": enrichResults(c, results)})
}

// ocrProcessHandler extracts text and fields from an uploaded package image without matching.
func ocrProcessHandler(c *gin.Context) {
	user, _ := getUserFromContext(c)
	data, ok := readImageUpload(c)
	if !ok {
		return
	}
	start := time.Now()
	res, err := scanSvc.ProcessScan(c.Request.Context(), data)
	if err != nil {
		respondScanError(c, err)
		return
	}
	logOCR(user, res.ScanID, res.ExtractedText, 0, "", 0, time.Since(start))
	c.JSON(http.StatusOK, gin.H{
		"scan_id":        res.ScanID,
		"extracted_text": res.ExtractedText,
		"fields":         res.Fields,
	})
}

// ocrSearchHandler runs the full scan-to-catalog pipeline on an uploaded image.
func ocrSearchHandler(c *gin.Context) {
	user, _ := getUserFromContext(c)
	data, ok := readImageUpload(c)
	if !ok {
		return
	}
	limit := cfg.Match.DefaultLimit
	if v := c.PostForm("limit"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 && parsed <= 100 {
			limit = parsed
		}
	}
	start := time.Now()
	res, err := scanSvc.SearchByScan(c.Request.Context(), data, limit)
	if err != nil {
		respondScanError(c, err)
		return
	}
	top := 0.0
	topStrategy := ""
	if len(res.Matches) > 0 {
		top = res.Matches[0].Confidence
		topStrategy = string(res.Matches[0].Strategy)
	}
	logOCR(user, res.ScanID, res.ExtractedText, len(res.Matches), topStrategy, top, time.Since(start))
	c.JSON(http.StatusOK, gin.H{
		"scan_id":        res.ScanID,
		"extracted_text": res.ExtractedText,
		"fields":         res.Fields,
		"results":        enrichResults(c, res.Matches),
	})
}

// readImageUpload pulls the multipart "file" field into memory, enforcing the size cap.
func readImageUpload(c *gin.Context) ([]byte, bool) {
	file, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file missing"})
		return nil, false
	}
	if file.Size > cfg.Server.MaxUploadSize {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file too large"})
		return nil, false
	}
	f, err := file.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "cannot open upload"})
		return nil, false
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "cannot read upload"})
		return nil, false
	}
	return data, true
}

func respondScanError(c *gin.Context, err error) {
	if errors.Is(err, ocr.ErrDecode) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "cannot decode image"})
		return
	}
	c.JSON(http.StatusInternalServerError, gin.H{"error": "scan failed"})
}

// enrichResults joins ranked matches back to full catalog rows for the response body.
func enrichResults(c *gin.Context, results []match.RankedResult) []gin.H {
	out := make([]gin.H, 0, len(results))
	for _, r := range results {
		var m models.Medicine
		if err := db.First(&m, r.EntryID).Error; err != nil {
			continue
		}
		out = append(out, gin.H{
			"medicine":         m,
			"confidence_score": r.Confidence,
			"matched_text":     r.MatchedText,
			"match_type":       string(r.Strategy),
		})
	}
	return out
}

func logSearch(user *models.User, query, searchType string, count int, topStrategy string, top float64) {
	entry := models.SearchLog{Query: query, SearchType: searchType, ResultsCount: count, TopStrategy: topStrategy, TopConfidence: top}
	if user != nil {
		uid := user.ID
		entry.UserID = &uid
	}
	if err := db.Create(&entry).Error; err != nil {
		// logging must never fail the request
		return
	}
}

func logOCR(user *models.User, scanID, text string, matches int, topStrategy string, top float64, elapsed time.Duration) {
	entry := models.OCRLog{
		ScanID:        scanID,
		ExtractedText: text,
		MatchesCount:  matches,
		TopStrategy:   topStrategy,
		TopConfidence: top,
		ProcessingMS:  elapsed.Milliseconds(),
	}
	if user != nil {
		uid := user.ID
		entry.UserID = &uid
	}
	if err := db.Create(&entry).Error; err != nil {
		return
	}
}
