package api

import (
	"context"
	"fmt"

	listingdomain "github.com/Apurer/brix-market/internal/domains/listings/domain"
	listingports "github.com/Apurer/brix-market/internal/domains/listings/ports"
	userdomain "github.com/Apurer/brix-market/internal/domains/users/domain"
	userports "github.com/Apurer/brix-market/internal/domains/users/ports"
)

var demoUsers = []userdomain.User{
	{ID: 1, Username: "admin", Nickname: "Market Admin", Email: "admin@brix.local", Role: userdomain.RoleAdmin},
	{ID: 2, Username: "farmer-kim", Nickname: "Kim's Orchard", Email: "kim@brix.local", Role: userdomain.RoleUser},
	{ID: 3, Username: "buyer-lee", Nickname: "Lee", Email: "lee@brix.local", Role: userdomain.RoleUser},
}

var demoListings = []listingdomain.Listing{
	{ID: 1, Title: "Jeju tangerines 5kg", Price: 25000, Quantity: 40, SellerID: 2, Grade: listingdomain.GradeSpecial},
	{ID: 2, Title: "Seongju melons x3", Price: 18000, Quantity: 25, SellerID: 2, Grade: listingdomain.GradeFirst},
	{ID: 3, Title: "Cheongsong apples 10kg", Price: 42000, Quantity: 12, SellerID: 2, Grade: listingdomain.GradeSecond},
}

// SeedDemoData upserts a small marketplace so a fresh process can take orders.
func SeedDemoData(ctx context.Context, users userports.Repository, listings listingports.Catalog) error {
	for i := range demoUsers {
		user := demoUsers[i]
		if _, err := users.Save(ctx, &user); err != nil {
			return fmt.Errorf("seed user %s: %w", user.Username, err)
		}
	}
	for i := range demoListings {
		listing := demoListings[i]
		if _, err := listings.Put(ctx, &listing); err != nil {
			return fmt.Errorf("seed listing %d: %w", listing.ID, err)
		}
	}
	return nil
}
