package mongo

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"staybook/internal/app/uow"
	domainavailability "staybook/internal/domain/availability"
	domainbooking "staybook/internal/domain/booking"
	domainlistings "staybook/internal/domain/listings"
	domainquote "staybook/internal/domain/quote"
	domaintenant "staybook/internal/domain/tenant"
)

var ErrUnitOfWorkNotConfigured = errors.New("mongo: unit of work factory missing database")

// Factory wires Mongo transactions into the generic UnitOfWork interface.
type Factory struct {
	DB *mongo.Database

	TenantsRepo        domaintenant.Repository
	ListingsRepo       domainlistings.Repository
	PricingRepo        domainlistings.PricingRepository
	DailyRatesRepo     domainlistings.DailyRateRepository
	DailyInventoryRepo domainlistings.DailyInventoryRepository
	BlocksRepo         domainavailability.BlockRepository
	BookingsRepo       domainbooking.Repository
	RedemptionsRepo    domainquote.RedemptionRepository
}

// NewFactory builds a factory with the default collection-backed repositories.
func NewFactory(db *mongo.Database) Factory {
	return Factory{
		DB:                 db,
		TenantsRepo:        NewTenantRepository(db),
		ListingsRepo:       NewListingRepository(db),
		PricingRepo:        NewPricingRepository(db),
		DailyRatesRepo:     NewDailyRateRepository(db),
		DailyInventoryRepo: NewDailyInventoryRepository(db),
		BlocksRepo:         NewBlockRepository(db),
		BookingsRepo:       NewBookingRepository(db),
		RedemptionsRepo:    NewRedemptionRepository(db),
	}
}

// Begin starts a MongoDB session/transaction.
func (f Factory) Begin(ctx context.Context, opts uow.TxOptions) (uow.UnitOfWork, error) {
	if f.DB == nil {
		return nil, ErrUnitOfWorkNotConfigured
	}
	session, err := f.DB.Client().StartSession()
	if err != nil {
		return nil, err
	}
	txnOpts := options.Transaction().SetReadConcern(f.DB.ReadConcern()).SetWriteConcern(f.DB.WriteConcern())
	if err := session.StartTransaction(txnOpts); err != nil {
		session.EndSession(ctx)
		return nil, err
	}
	return &Unit{
		session:        session,
		tenants:        f.TenantsRepo,
		listings:       f.ListingsRepo,
		pricing:        f.PricingRepo,
		dailyRates:     f.DailyRatesRepo,
		dailyInventory: f.DailyInventoryRepo,
		blocks:         f.BlocksRepo,
		bookings:       f.BookingsRepo,
		redemptions:    f.RedemptionsRepo,
	}, nil
}

type Unit struct {
	session mongo.Session

	tenants        domaintenant.Repository
	listings       domainlistings.Repository
	pricing        domainlistings.PricingRepository
	dailyRates     domainlistings.DailyRateRepository
	dailyInventory domainlistings.DailyInventoryRepository
	blocks         domainavailability.BlockRepository
	bookings       domainbooking.Repository
	redemptions    domainquote.RedemptionRepository
}

func (u *Unit) Tenants() domaintenant.Repository { return u.tenants }

func (u *Unit) Listings() domainlistings.Repository { return u.listings }

func (u *Unit) ListingPricing() domainlistings.PricingRepository { return u.pricing }

func (u *Unit) DailyRates() domainlistings.DailyRateRepository { return u.dailyRates }

func (u *Unit) DailyInventory() domainlistings.DailyInventoryRepository { return u.dailyInventory }

func (u *Unit) Blocks() domainavailability.BlockRepository { return u.blocks }

func (u *Unit) Bookings() domainbooking.Repository { return u.bookings }

func (u *Unit) Redemptions() domainquote.RedemptionRepository { return u.redemptions }

func (u *Unit) Commit(ctx context.Context) error {
	defer u.session.EndSession(ctx)
	return u.session.CommitTransaction(ctx)
}

func (u *Unit) Rollback(ctx context.Context) error {
	defer u.session.EndSession(ctx)
	return u.session.AbortTransaction(ctx)
}

// InjectContext ensures the Mongo session is available in context for downstream repos.
func (u *Unit) InjectContext(ctx context.Context) context.Context {
	return mongo.NewSessionContext(ctx, u.session)
}

var _ uow.UnitOfWork = (*Unit)(nil)
var _ uow.UoWFactory = Factory{}
