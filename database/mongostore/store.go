package mongostore

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/yeremiapane/pizzeria-app/models"
	"github.com/yeremiapane/pizzeria-app/services"
	"github.com/yeremiapane/pizzeria-app/utils"
)

const (
	productsCollection = "products"
	ordersCollection   = "orders"
	usersCollection    = "users"
)

// Store is the MongoDB adapter behind the service ports. Each order is a
// single document with its items embedded.
type Store struct {
	client   *mongo.Client
	products *mongo.Collection
	orders   *mongo.Collection
	users    *mongo.Collection
}

var _ services.Store = (*Store)(nil)

// Connect dials uri, checks the connection and prepares the indexes.
func Connect(ctx context.Context, uri, database string) (*Store, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect to mongodb: %w", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongodb: %w", err)
	}

	store := New(client, client.Database(database))
	if err := store.EnsureIndexes(ctx); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}
	utils.InfoLogger.Printf("Connected to MongoDB database %q", database)
	return store, nil
}

func New(client *mongo.Client, db *mongo.Database) *Store {
	return &Store{
		client:   client,
		products: db.Collection(productsCollection),
		orders:   db.Collection(ordersCollection),
		users:    db.Collection(usersCollection),
	}
}

// EnsureIndexes creates the unique email index and the listing indexes.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	if _, err := s.users.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true),
	}); err != nil {
		return fmt.Errorf("create users index: %w", err)
	}
	if _, err := s.orders.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "user", Value: 1}, {Key: "created_at", Value: -1}}},
		{Keys: bson.D{{Key: "status", Value: 1}, {Key: "created_at", Value: -1}}},
	}); err != nil {
		return fmt.Errorf("create orders indexes: %w", err)
	}
	if _, err := s.products.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "category", Value: 1}, {Key: "created_at", Value: -1}},
	}); err != nil {
		return fmt.Errorf("create products index: %w", err)
	}
	return nil
}

func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, readpref.Primary())
}

func (s *Store) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, mongo.ErrNoDocuments):
		return services.ErrNotFound
	case mongo.IsDuplicateKeyError(err):
		return services.ErrDuplicateEmail
	}
	return err
}

var newestFirst = options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})

// Products

func (s *Store) CreateProduct(ctx context.Context, p *models.Product) error {
	_, err := s.products.InsertOne(ctx, productToDoc(p))
	return translate(err)
}

func (s *Store) GetProduct(ctx context.Context, id string) (*models.Product, error) {
	var doc productDoc
	if err := s.products.FindOne(ctx, bson.M{"_id": id}).Decode(&doc); err != nil {
		return nil, translate(err)
	}
	product := docToProduct(doc)
	return &product, nil
}

func (s *Store) ListProducts(ctx context.Context, filter services.ProductFilter) ([]models.Product, error) {
	query := bson.M{}
	if filter.Category != nil {
		query["category"] = string(*filter.Category)
	}
	if filter.Available != nil {
		query["available"] = *filter.Available
	}
	if filter.Featured != nil {
		query["featured"] = *filter.Featured
	}

	cursor, err := s.products.Find(ctx, query, newestFirst)
	if err != nil {
		return nil, err
	}
	var docs []productDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, err
	}

	products := make([]models.Product, 0, len(docs))
	for _, doc := range docs {
		products = append(products, docToProduct(doc))
	}
	return products, nil
}

func (s *Store) UpdateProduct(ctx context.Context, p *models.Product) error {
	res, err := s.products.ReplaceOne(ctx, bson.M{"_id": p.ID}, productToDoc(p))
	if err != nil {
		return translate(err)
	}
	if res.MatchedCount == 0 {
		return services.ErrNotFound
	}
	return nil
}

func (s *Store) DeleteProduct(ctx context.Context, id string) error {
	res, err := s.products.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return services.ErrNotFound
	}
	return nil
}

// Orders

func (s *Store) CreateOrder(ctx context.Context, o *models.Order) error {
	_, err := s.orders.InsertOne(ctx, orderToDoc(o))
	return translate(err)
}

func (s *Store) GetOrder(ctx context.Context, id string) (*models.Order, error) {
	var doc orderDoc
	if err := s.orders.FindOne(ctx, bson.M{"_id": id}).Decode(&doc); err != nil {
		return nil, translate(err)
	}
	order := docToOrder(doc)
	return &order, nil
}

func (s *Store) ListOrders(ctx context.Context, filter services.OrderFilter) ([]models.Order, error) {
	query := bson.M{}
	if filter.UserID != "" {
		query["user"] = filter.UserID
	}
	if filter.Status != "" {
		query["status"] = string(filter.Status)
	}

	cursor, err := s.orders.Find(ctx, query, newestFirst)
	if err != nil {
		return nil, err
	}
	var docs []orderDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, err
	}

	orders := make([]models.Order, 0, len(docs))
	for _, doc := range docs {
		orders = append(orders, docToOrder(doc))
	}
	return orders, nil
}

// UpdateOrder sets the mutable order fields only while the stored version
// matches expectedVersion.
func (s *Store) UpdateOrder(ctx context.Context, o *models.Order, expectedVersion int) error {
	set := bson.M{
		"status":     string(o.Status),
		"updated_at": o.UpdatedAt,
		"version":    expectedVersion + 1,
	}
	unset := bson.M{}
	if o.EstimatedDeliveryAt != nil {
		set["estimated_delivery_time"] = *o.EstimatedDeliveryAt
	} else {
		unset["estimated_delivery_time"] = ""
	}
	if o.DeliveredAt != nil {
		set["delivered_at"] = *o.DeliveredAt
	} else {
		unset["delivered_at"] = ""
	}

	update := bson.M{"$set": set}
	if len(unset) > 0 {
		update["$unset"] = unset
	}

	res, err := s.orders.UpdateOne(ctx, bson.M{"_id": o.ID, "version": expectedVersion}, update)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		count, err := s.orders.CountDocuments(ctx, bson.M{"_id": o.ID})
		if err != nil {
			return err
		}
		if count == 0 {
			return services.ErrNotFound
		}
		return services.ErrVersionConflict
	}
	o.Version = expectedVersion + 1
	return nil
}

// Users

func (s *Store) CreateUser(ctx context.Context, u *models.User) error {
	_, err := s.users.InsertOne(ctx, userToDoc(u))
	return translate(err)
}

func (s *Store) GetUser(ctx context.Context, id string) (*models.User, error) {
	var doc userDoc
	if err := s.users.FindOne(ctx, bson.M{"_id": id}).Decode(&doc); err != nil {
		return nil, translate(err)
	}
	user := docToUser(doc)
	return &user, nil
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var doc userDoc
	err := s.users.FindOne(ctx, bson.M{"email": models.NormalizeEmail(email)}).Decode(&doc)
	if err != nil {
		return nil, translate(err)
	}
	user := docToUser(doc)
	return &user, nil
}

func (s *Store) ListUsers(ctx context.Context) ([]models.User, error) {
	cursor, err := s.users.Find(ctx, bson.M{}, newestFirst)
	if err != nil {
		return nil, err
	}
	var docs []userDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, err
	}
	users := make([]models.User, 0, len(docs))
	for _, doc := range docs {
		users = append(users, docToUser(doc))
	}
	return users, nil
}

func (s *Store) UpdateUser(ctx context.Context, u *models.User) error {
	res, err := s.users.UpdateOne(ctx, bson.M{"_id": u.ID}, bson.M{"$set": bson.M{
		"name":       u.Name,
		"password":   u.PasswordHash,
		"phone":      u.Phone,
		"address":    u.Address,
		"role":       string(u.Role),
		"updated_at": u.UpdatedAt,
	}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return services.ErrNotFound
	}
	return nil
}
