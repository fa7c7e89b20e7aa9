// Command pizzactl is a terminal client for the pizzeria API. The session
// (token and cart) is kept in a JSON file between runs.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"

	"github.com/yeremiapane/pizzeria-app/cart"
	"github.com/yeremiapane/pizzeria-app/client"
	"github.com/yeremiapane/pizzeria-app/models"
	"github.com/yeremiapane/pizzeria-app/utils"
)

const usage = `usage: pizzactl <command> [flags]

commands:
  register   create an account and log in
  login      log in
  logout     forget the stored token
  me         show the logged in user
  products   list the menu
  cart       show, add, qty, remove or clear cart items
  checkout   place an order with the cart contents
  orders     list my orders
  order      show one order
  cancel     cancel a pending or confirmed order
  status     set an order status (admin)
`

func main() {
	_ = godotenv.Load()
	utils.InitLogger()

	if len(os.Args) < 2 {
		fmt.Print(usage)
		os.Exit(1)
	}

	app := newCLI()
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := app.run(ctx, os.Args[1], os.Args[2:]); err != nil {
		var apiErr *client.APIError
		if errors.As(err, &apiErr) && apiErr.Retryable {
			fmt.Fprintln(os.Stderr, "error:", apiErr.Message, "(try again)")
		} else {
			fmt.Fprintln(os.Stderr, "error:", err)
		}
		os.Exit(1)
	}
}

type cli struct {
	api *client.Client
	out io.Writer
}

func newCLI() *cli {
	apiURL := os.Getenv("PIZZA_API_URL")
	if apiURL == "" {
		apiURL = "http://localhost:3000/api"
	}
	sessionPath := os.Getenv("PIZZACTL_SESSION")
	if sessionPath == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			home = "."
		}
		sessionPath = filepath.Join(home, ".pizzactl", "session.json")
	}

	opts := []cart.Option{cart.WithSaveErrorHandler(func(err error) {
		utils.ErrorLogger.Warnf("Could not save cart to %s: %v", sessionPath, err)
	})}
	if raw := os.Getenv("DELIVERY_FEE"); raw != "" {
		fee, err := decimal.NewFromString(raw)
		if err != nil {
			utils.ErrorLogger.Fatalf("Invalid DELIVERY_FEE %q", raw)
		}
		opts = append(opts, cart.WithDeliveryFee(fee))
	}

	storage := cart.NewFileStorage(sessionPath)
	session := client.NewSession(storage, opts...)
	return &cli{api: client.New(apiURL, session), out: os.Stdout}
}

func (a *cli) run(ctx context.Context, cmd string, args []string) error {
	switch cmd {
	case "register":
		return a.register(ctx, args)
	case "login":
		return a.login(ctx, args)
	case "logout":
		if err := a.api.Logout(); err != nil {
			return err
		}
		fmt.Fprintln(a.out, "Logged out.")
		return nil
	case "me":
		user, err := a.api.Me(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(a.out, "%s <%s> (%s)\n%s\n", user.Name, user.Email, user.Role, formatAddress(user.Address))
		return nil
	case "products":
		return a.products(ctx, args)
	case "cart":
		return a.cart(ctx, args)
	case "checkout":
		return a.checkout(ctx, args)
	case "orders":
		orders, err := a.api.MyOrders(ctx)
		if err != nil {
			return err
		}
		printOrders(a.out, orders)
		return nil
	case "order":
		if len(args) != 1 {
			return errors.New("usage: pizzactl order <id>")
		}
		order, err := a.api.Order(ctx, args[0])
		if err != nil {
			return err
		}
		printOrder(a.out, order)
		return nil
	case "cancel":
		if len(args) != 1 {
			return errors.New("usage: pizzactl cancel <id>")
		}
		order, err := a.api.CancelOrder(ctx, args[0])
		if err != nil {
			return err
		}
		fmt.Fprintf(a.out, "Order %s is now %s.\n", order.ID, order.Status)
		return nil
	case "status":
		if len(args) != 2 {
			return errors.New("usage: pizzactl status <id> <status>")
		}
		order, err := a.api.UpdateOrderStatus(ctx, args[0], models.OrderStatus(args[1]))
		if err != nil {
			return err
		}
		printOrder(a.out, order)
		return nil
	}
	fmt.Fprint(a.out, usage)
	return fmt.Errorf("unknown command %q", cmd)
}

func (a *cli) register(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("register", flag.ContinueOnError)
	var req client.RegisterRequest
	fs.StringVar(&req.Name, "name", "", "full name")
	fs.StringVar(&req.Email, "email", "", "email address")
	fs.StringVar(&req.Password, "password", "", "password, at least 6 characters")
	fs.StringVar(&req.Phone, "phone", "", "phone number")
	addressFlags(fs, &req.Address)
	if err := a.parse(fs, args); err != nil {
		return err
	}

	user, err := a.api.Register(ctx, req)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Welcome, %s!\n", user.Name)
	return nil
}

func (a *cli) login(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("login", flag.ContinueOnError)
	email := fs.String("email", "", "email address")
	password := fs.String("password", "", "password")
	if err := a.parse(fs, args); err != nil {
		return err
	}
	if *email == "" || *password == "" {
		return errors.New("email and password are required")
	}

	user, err := a.api.Login(ctx, *email, *password)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Logged in as %s.\n", user.Name)
	return nil
}

func (a *cli) products(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("products", flag.ContinueOnError)
	category := fs.String("category", "", "Pizza, Drink or Side")
	featured := fs.Bool("featured", false, "only featured products")
	if err := a.parse(fs, args); err != nil {
		return err
	}

	available := true
	q := client.ProductQuery{Category: models.Category(*category), Available: &available}
	if *featured {
		q.Featured = featured
	}
	products, err := a.api.Products(ctx, q)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tCATEGORY\tPRICE")
	for _, p := range products {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", p.ID, p.Name, p.Category, formatPricing(p))
	}
	return w.Flush()
}

func (a *cli) cart(ctx context.Context, args []string) error {
	c := a.api.Session().Cart()
	if len(args) == 0 {
		printCart(a.out, c)
		return nil
	}

	switch args[0] {
	case "show":
		printCart(a.out, c)
		return nil
	case "add":
		fs := flag.NewFlagSet("cart add", flag.ContinueOnError)
		size := fs.String("size", "", "pizza size: Small, Medium, Large or Family")
		qty := fs.Int("qty", 1, "quantity")
		obs := fs.String("obs", "", "observations for the kitchen")
		if err := a.parse(fs, args[1:]); err != nil {
			return err
		}
		if fs.NArg() != 1 {
			return errors.New("usage: pizzactl cart add [-size S] [-qty N] [-obs text] <product-id>")
		}

		product, err := a.api.Product(ctx, fs.Arg(0))
		if err != nil {
			return err
		}
		if !product.Available {
			return fmt.Errorf("%s is not available right now", product.Name)
		}
		var selected *models.SizeName
		if *size != "" {
			s := models.SizeName(*size)
			selected = &s
		}
		if err := c.AddItem(*product, selected, *qty, *obs); err != nil {
			return err
		}
		printCart(a.out, c)
		return nil
	case "qty":
		if len(args) != 3 {
			return errors.New("usage: pizzactl cart qty <index> <quantity>")
		}
		index, err := parseIndex(args[1])
		if err != nil {
			return err
		}
		qty, err := strconv.Atoi(args[2])
		if err != nil {
			return fmt.Errorf("invalid quantity %q", args[2])
		}
		if err := c.UpdateQuantity(index, qty); err != nil {
			return err
		}
		printCart(a.out, c)
		return nil
	case "remove":
		if len(args) != 2 {
			return errors.New("usage: pizzactl cart remove <index>")
		}
		index, err := parseIndex(args[1])
		if err != nil {
			return err
		}
		if err := c.RemoveItem(index); err != nil {
			return err
		}
		printCart(a.out, c)
		return nil
	case "clear":
		c.Clear()
		fmt.Fprintln(a.out, "Cart cleared.")
		return nil
	}
	return fmt.Errorf("unknown cart command %q", args[0])
}

func (a *cli) checkout(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("checkout", flag.ContinueOnError)
	method := fs.String("pay", string(models.PaymentPIX), `payment method: "Cash", "Credit Card", "Debit Card" or "PIX"`)
	change := fs.String("change", "", "amount to bring change for when paying cash")
	var address models.Address
	addressFlags(fs, &address)
	if err := a.parse(fs, args); err != nil {
		return err
	}

	var changeNeeded *decimal.Decimal
	if *change != "" {
		d, err := decimal.NewFromString(*change)
		if err != nil {
			return fmt.Errorf("invalid change amount %q", *change)
		}
		changeNeeded = &d
	}
	payment, err := models.NewPayment(models.PaymentMethod(*method), changeNeeded)
	if err != nil {
		return err
	}

	var deliverTo *models.Address
	if address != (models.Address{}) {
		deliverTo = &address
	}

	order, err := a.api.Checkout(ctx, deliverTo, payment)
	if err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Order placed!")
	printOrder(a.out, order)
	return nil
}

// parse reports flag errors to the caller instead of exiting.
func (a *cli) parse(fs *flag.FlagSet, args []string) error {
	fs.SetOutput(a.out)
	return fs.Parse(args)
}

func addressFlags(fs *flag.FlagSet, a *models.Address) {
	fs.StringVar(&a.Street, "street", "", "street")
	fs.StringVar(&a.Number, "number", "", "number")
	fs.StringVar(&a.Complement, "complement", "", "complement")
	fs.StringVar(&a.Neighborhood, "neighborhood", "", "neighborhood")
	fs.StringVar(&a.City, "city", "", "city")
	fs.StringVar(&a.State, "state", "", "state")
	fs.StringVar(&a.ZipCode, "zip", "", "zip code")
}

func parseIndex(raw string) (int, error) {
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return 0, fmt.Errorf("invalid item number %q", raw)
	}
	return n - 1, nil
}

func formatPricing(p models.Product) string {
	switch d := p.Details.(type) {
	case models.PizzaDetails:
		parts := make([]string, 0, len(d.Sizes))
		for _, s := range d.Sizes {
			parts = append(parts, fmt.Sprintf("%s %s", s.Name, utils.FormatCurrencyBRL(s.Price)))
		}
		return strings.Join(parts, " | ")
	case models.FlatPrice:
		return utils.FormatCurrencyBRL(d.Price)
	}
	return "-"
}

func formatAddress(a models.Address) string {
	line := a.Street + ", " + a.Number
	if a.Complement != "" {
		line += " - " + a.Complement
	}
	return fmt.Sprintf("%s, %s, %s/%s %s", line, a.Neighborhood, a.City, a.State, a.ZipCode)
}

func printCart(out io.Writer, c *cart.Cart) {
	items := c.Items()
	if len(items) == 0 {
		fmt.Fprintln(out, "Your cart is empty.")
		return
	}
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "#\tITEM\tSIZE\tQTY\tPRICE\tTOTAL")
	for i, item := range items {
		size := "-"
		if item.Size != nil {
			size = string(*item.Size)
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t%d\t%s\t%s\n", i+1, item.Product.Name, size, item.Quantity,
			utils.FormatCurrencyBRL(item.Price), utils.FormatCurrencyBRL(item.LineTotal()))
	}
	w.Flush()
	fmt.Fprintf(out, "Subtotal: %s\nDelivery: %s\nTotal:    %s\n",
		utils.FormatCurrencyBRL(c.Subtotal()), utils.FormatCurrencyBRL(c.DeliveryFee()), utils.FormatCurrencyBRL(c.Total()))
}

func printOrders(out io.Writer, orders []models.Order) {
	if len(orders) == 0 {
		fmt.Fprintln(out, "No orders yet.")
		return
	}
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tPLACED\tSTATUS\tTOTAL")
	for _, o := range orders {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", o.ID, o.CreatedAt.Local().Format("02/01/2006 15:04"), o.Status,
			utils.FormatCurrencyBRL(o.TotalAmount))
	}
	w.Flush()
}

func printOrder(out io.Writer, o *models.Order) {
	fmt.Fprintf(out, "Order %s (%s)\n", o.ID, o.Status)
	if o.Customer != nil {
		fmt.Fprintf(out, "Customer: %s <%s> %s\n", o.Customer.Name, o.Customer.Email, o.Customer.Phone)
	}
	for _, item := range o.Items {
		size := ""
		if item.Size != nil {
			size = " " + string(*item.Size)
		}
		fmt.Fprintf(out, "  %dx %s%s  %s\n", item.Quantity, item.ProductName, size, utils.FormatCurrencyBRL(item.LineTotal()))
		if item.Observations != "" {
			fmt.Fprintf(out, "     obs: %s\n", item.Observations)
		}
	}
	fmt.Fprintf(out, "Delivery fee: %s\nTotal: %s\n", utils.FormatCurrencyBRL(o.DeliveryFee), utils.FormatCurrencyBRL(o.TotalAmount))
	if method, change := models.PaymentFields(o.Payment); method != "" {
		if change != nil {
			fmt.Fprintf(out, "Payment: %s (change for %s)\n", method, utils.FormatCurrencyBRL(*change))
		} else {
			fmt.Fprintf(out, "Payment: %s\n", method)
		}
	}
	fmt.Fprintln(out, "Deliver to:", formatAddress(o.DeliveryAddress))
	if o.EstimatedDeliveryAt != nil {
		fmt.Fprintln(out, "Estimated delivery:", o.EstimatedDeliveryAt.Local().Format("15:04"))
	}
	if o.DeliveredAt != nil {
		fmt.Fprintln(out, "Delivered at:", o.DeliveredAt.Local().Format("02/01/2006 15:04"))
	}
}
