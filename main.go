package main

import (
	"log"
	"os"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"storefront/internal/auth"
	"storefront/internal/config"
	"storefront/internal/database"
	"storefront/internal/handlers"
	"storefront/internal/mailer"
	"storefront/internal/middleware"
	"storefront/internal/payments"
)

func main() {
	config.Load()

	if config.AppEnv.JWTSecret == "" {
		log.Fatal("JWT_SECRET is required")
	}

	client, err := database.Connect(config.AppEnv.MongoURI)
	if err != nil {
		log.Fatal(err)
	}

	db := client.Database(config.AppEnv.DBName)

	log.Println("MongoDB connected to:", db.Name())

	if err := database.EnsureUserIndexes(db); err != nil {
		log.Printf("user index warning: %v", err)
	}
	if err := database.EnsureProductIndexes(db); err != nil {
		log.Printf("product index warning: %v", err)
	}
	if err := database.EnsureCategoryIndexes(db); err != nil {
		log.Printf("category index warning: %v", err)
	}
	if err := database.EnsureOrderIndexes(db); err != nil {
		log.Printf("order index warning: %v", err)
	}
	if err := database.EnsureCartIndexes(db); err != nil {
		log.Printf("cart index warning: %v", err)
	}
	if err := database.EnsureReviewIndexes(db); err != nil {
		log.Printf("review index warning: %v", err)
	}
	if err := database.EnsureCouponIndexes(db); err != nil {
		log.Printf("coupon index warning: %v", err)
	}
	if err := database.EnsureNewsletterIndexes(db); err != nil {
		log.Printf("newsletter index warning: %v", err)
	}
	if err := database.EnsurePaymentIndexes(db); err != nil {
		log.Printf("payment index warning: %v", err)
	}

	issuer := auth.NewTokenIssuer(config.AppEnv.JWTSecret, config.AppEnv.AccessTokenTTL)
	verifier := auth.NewTokenVerifier(config.AppEnv.JWTSecret)

	stripeClient := payments.NewStripeClient(config.AppEnv.StripeSecretKey)
	webhookVerifier := payments.NewWebhookVerifier(config.AppEnv.StripeWebhookSecret)
	razorpayClient := payments.NewRazorpayClient(config.AppEnv.RazorpayKeyID, config.AppEnv.RazorpayKeySecret)

	mail := mailer.New(
		config.AppEnv.SMTPHost,
		config.AppEnv.SMTPPort,
		config.AppEnv.SMTPUser,
		config.AppEnv.SMTPPass,
		config.AppEnv.SMTPFrom,
		config.AppEnv.SMTPFromName,
	)
	if !mail.Enabled() {
		log.Println("[MAIL] [WARN] SMTP not configured, notifications disabled")
	}

	r := gin.Default()
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{config.AppEnv.FrontendURL},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	api := r.Group("/api")

	api.GET("/health", handlers.Health(db))

	authGroup := api.Group("/auth")
	{
		authGroup.POST("/register", handlers.Register(db, issuer))
		authGroup.POST("/login", handlers.Login(db, issuer))
		authGroup.GET("/me", middleware.RequireAuth(verifier), handlers.GetMe(db))
	}

	products := api.Group("/products")
	{
		products.GET("", handlers.GetProducts(db))
		products.GET("/featured", handlers.GetFeaturedProducts(db))
		products.GET("/:id", handlers.GetProduct(db))
		products.GET("/:id/reviews", handlers.GetProductReviews(db))
		products.POST("/:id/reviews", middleware.RequireAuth(verifier), handlers.CreateProductReview(db))

		products.POST("", middleware.RequireAuth(verifier), middleware.RequireAdmin(), handlers.CreateProduct(db))
		products.PUT("/:id", middleware.RequireAuth(verifier), middleware.RequireAdmin(), handlers.UpdateProduct(db))
		products.DELETE("/:id", middleware.RequireAuth(verifier), middleware.RequireAdmin(), handlers.DeleteProduct(db))
	}

	categories := api.Group("/categories")
	{
		categories.GET("", handlers.GetCategories(db))
		categories.GET("/slug/:slug", handlers.GetCategoryBySlug(db))
		categories.GET("/:id", handlers.GetCategory(db))

		categories.POST("", middleware.RequireAuth(verifier), middleware.RequireAdmin(), handlers.CreateCategory(db))
		categories.PUT("/:id", middleware.RequireAuth(verifier), middleware.RequireAdmin(), handlers.UpdateCategory(db))
		categories.DELETE("/:id", middleware.RequireAuth(verifier), middleware.RequireAdmin(), handlers.DeleteCategory(db))
	}

	cart := api.Group("/cart", middleware.RequireAuth(verifier))
	{
		cart.GET("", handlers.GetCart(db))
		cart.POST("", handlers.AddToCart(db))
		cart.PUT("/:productId", handlers.UpdateCartItem(db))
		cart.DELETE("/:productId", handlers.RemoveFromCart(db))
		cart.DELETE("", handlers.ClearCart(db))
	}

	wishlist := api.Group("/wishlist", middleware.RequireAuth(verifier))
	{
		wishlist.GET("", handlers.GetWishlist(db))
		wishlist.POST("", handlers.AddToWishlist(db))
		wishlist.DELETE("/:productId", handlers.RemoveFromWishlist(db))
		wishlist.DELETE("", handlers.ClearWishlist(db))
	}

	orders := api.Group("/orders")
	{
		// Raw-body signature verification; no auth middleware on purpose.
		orders.POST("/webhook", handlers.StripeWebhook(db, webhookVerifier))

		orders.POST("", middleware.RequireAuth(verifier), handlers.CreateOrder(db, stripeClient, mail))
		orders.GET("", middleware.RequireAuth(verifier), handlers.GetMyOrders(db))
		orders.GET("/all", middleware.RequireAuth(verifier), middleware.RequireAdmin(), handlers.GetAllOrders(db))
		orders.GET("/:id", middleware.RequireAuth(verifier), handlers.GetOrder(db))
		orders.PUT("/:id/status", middleware.RequireAuth(verifier), middleware.RequireAdmin(), handlers.UpdateOrderStatus(db))
		orders.PUT("/:id/deliver", middleware.RequireAuth(verifier), middleware.RequireAdmin(), handlers.MarkOrderDelivered(db))
	}

	coupons := api.Group("/coupons")
	{
		coupons.POST("/validate", handlers.ValidateCoupon(db))
		coupons.POST("/redeem", middleware.RequireAuth(verifier), handlers.RedeemCoupon(db))

		coupons.GET("", middleware.RequireAuth(verifier), middleware.RequireAdmin(), handlers.GetCoupons(db))
		coupons.POST("", middleware.RequireAuth(verifier), middleware.RequireAdmin(), handlers.CreateCoupon(db))
		coupons.DELETE("/:id", middleware.RequireAuth(verifier), middleware.RequireAdmin(), handlers.DeleteCoupon(db))
	}

	api.GET("/reviews/:id", handlers.GetReview(db))
	api.PUT("/reviews/:id", middleware.RequireAuth(verifier), handlers.UpdateReview(db))
	api.DELETE("/reviews/:id", middleware.RequireAuth(verifier), handlers.DeleteReview(db))

	newsletter := api.Group("/newsletter")
	{
		newsletter.POST("/subscribe", handlers.SubscribeNewsletter(db, mail))
		newsletter.POST("/unsubscribe", handlers.UnsubscribeNewsletter(db))
		newsletter.GET("/subscribers", middleware.RequireAuth(verifier), middleware.RequireAdmin(), handlers.GetNewsletterSubscribers(db))
	}

	contact := api.Group("/contact")
	{
		contact.POST("", handlers.SubmitContact(db, mail, config.AppEnv.AdminEmail))
		contact.GET("", middleware.RequireAuth(verifier), middleware.RequireAdmin(), handlers.GetContacts(db))
		contact.GET("/:id", middleware.RequireAuth(verifier), middleware.RequireAdmin(), handlers.GetContact(db))
		contact.PUT("/:id/status", middleware.RequireAuth(verifier), middleware.RequireAdmin(), handlers.UpdateContactStatus(db))
	}

	customRequests := api.Group("/custom-request")
	{
		customRequests.POST("", handlers.SubmitCustomRequest(db, mail, config.AppEnv.AdminEmail))
		customRequests.GET("", middleware.RequireAuth(verifier), middleware.RequireAdmin(), handlers.GetCustomRequests(db))
		customRequests.PUT("/:id/status", middleware.RequireAuth(verifier), middleware.RequireAdmin(), handlers.UpdateCustomRequestStatus(db))
	}

	paymentsGroup := api.Group("/payments")
	{
		paymentsGroup.POST("/create-payment-intent", handlers.CreatePaymentIntent(db, stripeClient))
		paymentsGroup.POST("/confirm-payment", handlers.ConfirmPayment(db, stripeClient))
		paymentsGroup.POST("/razorpay/create-order", handlers.CreateRazorpayOrder(db, razorpayClient))
		paymentsGroup.POST("/razorpay/verify-payment", handlers.VerifyRazorpayPayment(db, razorpayClient))
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = "5000"
	}
	log.Println("Server listening on port", port)
	if err := r.Run(":" + port); err != nil {
		log.Fatal(err)
	}
}
