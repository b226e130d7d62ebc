package marketing

import (
	"strings"

	"github.com/autoflexeasy/autoflex-backend/internal/billing"
	"github.com/autoflexeasy/autoflex-backend/pkg/config"
)

type Site struct {
	Name        string            `json:"name"`
	Description string            `json:"description"`
	URL         string            `json:"url"`
	OGImage     string            `json:"ogImage"`
	Links       map[string]string `json:"links,omitempty"`
}

type Plan struct {
	Name              string        `json:"name"`
	Description       string        `json:"description"`
	Features          []string      `json:"features"`
	MonthlyPriceMinor int64         `json:"monthlyPriceMinor"`
	MonthlyPrice      billing.Money `json:"monthlyPrice"`
	Interval          string        `json:"interval"`
}

type FAQItem struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

type Testimonial struct {
	Name           string `json:"name"`
	Title          string `json:"title"`
	AvatarFallback string `json:"avatarFallback"`
	AvatarImg      string `json:"avatarImg"`
	Text           string `json:"text"`
}

type NavItem struct {
	Href     string `json:"href"`
	Icon     string `json:"icon"`
	Label    string `json:"label"`
	Disabled bool   `json:"disabled,omitempty"`
}

// Content serves the static public site data.
type Content struct {
	site Site
}

func NewContent(cfg config.SiteConfig) *Content {
	url := strings.TrimRight(cfg.URL, "/")
	return &Content{site: Site{
		Name:        cfg.Name,
		Description: cfg.Name + ": The ultimate tool for Amazon Flex drivers to capture blocks effortlessly and maximize earnings.",
		URL:         url,
		OGImage:     url + "/og.jpg",
		Links:       map[string]string{"twitter": "https://twitter.com/AutoFlexEasy"},
	}}
}

func (c *Content) Site() Site { return c.site }

var sharedFeatures = []string{
	"24/7 automatic block capture",
	"Smart filtering & notifications",
	"Safe, lightweight, and easy setup",
	"Email support",
	"Free updates",
	"Satisfaction guarantee",
	"Referral program",
}

func (c *Content) Pricing() []Plan {
	plans := []Plan{
		{Name: "Starter", Description: "Everything you need to start.", MonthlyPriceMinor: 2000},
		{Name: "Pro", Description: "Advanced features for heavy use and teams.", MonthlyPriceMinor: 9000},
	}
	for i := range plans {
		plans[i].Features = append([]string(nil), sharedFeatures...)
		plans[i].MonthlyPrice = billing.NewMoney(plans[i].MonthlyPriceMinor, "usd")
		plans[i].Interval = "month"
	}
	return plans
}

func (c *Content) FAQ() []FAQItem {
	return []FAQItem{
		{"What exactly does my subscription include?", "Your subscription includes full access to the 24/7 automatic block capture system, instant mobile alerts, priority WhatsApp support, and all future updates at no additional cost."},
		{"How does the block capture system work?", "Our technology monitors the Amazon Flex app for available blocks that match your preferences and notifies you immediately when opportunities become available."},
		{"What if the system doesn't help me get blocks?", "We offer a 7-day satisfaction guarantee. If in your first week you don't capture at least one block using our service, we'll refund 100% of your payment."},
		{"Do I need to leave my phone on?", "No, our service runs in the cloud. You don't need to keep your device on or have the app open. Everything works remotely and automatically."},
		{"Does it work on any device?", "Yes, AutoFlex Easy is compatible with iOS, Android, and computers. You only need internet access to receive alerts and manage your account."},
		{"How does the referral system work?", "When you refer someone and they subscribe to any plan, you receive 1 free week of service. The credit is automatically applied to your account."},
		{"Can I cancel at any time?", "Yes, all our subscriptions can be canceled at any time. There are no long-term contracts or hidden cancellation fees."},
		{"What payment methods do you accept?", "We accept all major credit/debit cards through Stripe, plus PayPal and bank transfers in some countries."},
		{"Do you offer technical support?", "Yes, we provide 24/7 priority support via WhatsApp and email. Our average response time is less than 15 minutes for critical issues."},
		{"How quickly will I start getting blocks?", "Most users start seeing results within the first 24 hours. However, results may vary depending on your market area and block availability."},
	}
}

func (c *Content) Testimonials() []Testimonial {
	return []Testimonial{
		{"María G.", "Amazon Flex Driver", "MG", "/images/dcodes.png", "AutoFlex Easy saves me 3 hours every day. Now I grab premium blocks effortlessly while having breakfast."},
		{"Carlos R.", "Full-Time Driver", "CR", "/images/SuhailKakar.jpg", "Since using AutoFlex, my weekly earnings increased by 40%. The investment paid off in 2 days."},
		{"Elena V.", "New Amazon Flex Driver", "EV", "/images/said.jpg", "As a beginner, this tool was a lifesaver. Setup in 5 minutes and 24/7 support."},
		{"Javier M.", "Driver since 2020", "JM", "/images/magicui.jpg", "I tried all the tools on the market and this one is the fastest and most reliable. Unbeatable!"},
		{"Laura T.", "Mother & Driver", "LT", "/images/yasmeen.jpg", "Now I can choose blocks near my kids' school. Real flexibility!"},
		{"David T.", "Logistics Enthusiast", "DT", "/images/shadcn.jpg", "AutoFlex Easy lets me plan my week efficiently and never miss high-value blocks."},
		{"Sofia G.", "Amazon Flex Driver", "SG", "/images/bzrag.jpg", "I no longer worry about missing blocks. AutoFlex Easy handles it all for me."},
		{"Miguel R.", "Part-Time Driver", "MR", "/images/MPlegas.jpg", "Block automation is real. This tool is a must for every Flex driver."},
		{"Ana S.", "Amazon Flex Driver", "AS", "/images/kvn.jpg", "Easy to set up and very effective. I recommend it to everyone."},
		{"Roberto S.", "Experienced Driver", "RS", "/images/0xraduan.jpg", "AutoFlex Easy helps me stay organized and make the most of every block."},
		{"Jessica L.", "Full-Time Driver", "JL", "/images/luax0.jpg", "My earnings have gone up 30% since I started using AutoFlex Easy. Incredible!"},
		{"Carlos M.", "Amazon Flex Driver", "CM", "/images/robdev.jpg", "AutoFlex Easy changed how I work. Capturing blocks is now effortless while I handle other tasks."},
	}
}

// Nav is the dashboard sidebar. Disabled entries are shown but not linkable.
func (c *Content) Nav() []NavItem {
	return []NavItem{
		{Href: "/dashboard", Icon: "Inbox", Label: "Dashboard"},
		{Href: "/dashboard/robot", Icon: "Bot", Label: "Robot Control"},
		{Href: "/dashboard/posts", Icon: "FileText", Label: "Posts"},
		{Href: "/dashboard/customer", Icon: "Users2", Label: "Customers", Disabled: true},
		{Href: "/dashboard/analytics", Icon: "LineChart", Label: "Analytics", Disabled: true},
	}
}
