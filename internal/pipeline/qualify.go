package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/leadgen-cli/internal/model"
	"github.com/sells-group/leadgen-cli/pkg/anthropic"
	"github.com/sells-group/leadgen-cli/pkg/firecrawl"
)

// classifyModel is the cheap model used for per-lead site classification.
const classifyModel = "claude-haiku-4-5-20251001"

// contactPageSuffixes are the paths tried when the homepage has no email.
var contactPageSuffixes = []string{
	"/contact", "/contact-us", "/about", "/about-us",
	"/legal", "/imprint", "/impressum",
}

// QualifyStage scrapes each lead's website, classifies the business with
// an LLM, and filters the dataset down to product sellers.
type QualifyStage struct {
	Firecrawl firecrawl.Client
	Anthropic anthropic.Client
	DataPath  string
	Industry  string
	LeadDelay time.Duration
	Sleep     func(ctx context.Context, d time.Duration) error
}

// classification is the parsed LLM verdict for one site.
type classification struct {
	BusinessType string `json:"business_type"`
	Ecommerce    string `json:"ecommerce"`
	Confidence   int    `json:"confidence"`
	Reasoning    string `json:"reasoning"`
	TechStack    string `json:"tech_stack"`
}

func (s *QualifyStage) Run(ctx context.Context) error {
	leads, err := model.ReadDataset(s.DataPath)
	if err != nil {
		return eris.Wrap(err, "qualify: read dataset")
	}

	log := zap.L()
	log.Info("qualify: starting", zap.Int("leads", len(leads)))

	var kept []model.Lead
	for i := range leads {
		lead := &leads[i]
		if i > 0 {
			if err := s.sleep(ctx, s.LeadDelay); err != nil {
				return err
			}
		}

		s.qualifyLead(ctx, lead)

		// Only product sellers move on; service providers and
		// unclassifiable sites are dropped here, not downstream.
		switch lead.BusinessType {
		case model.BusinessManufacturer, model.BusinessRetailer, model.BusinessDistributor:
			kept = append(kept, *lead)
		default:
			log.Debug("qualify: filtered out",
				zap.String("company", lead.Company),
				zap.String("business_type", string(lead.BusinessType)),
			)
		}
	}

	log.Info("qualify: complete",
		zap.Int("kept", len(kept)),
		zap.Int("filtered", len(leads)-len(kept)),
	)
	return model.WriteDataset(s.DataPath, kept)
}

// qualifyLead fills the qualification fields in place. Scrape or LLM
// failures leave the lead unqualified rather than failing the stage.
func (s *QualifyStage) qualifyLead(ctx context.Context, lead *model.Lead) {
	lead.BusinessType = model.BusinessUnknown
	lead.Ecommerce = model.EcommerceUnknown
	if lead.Website == "" {
		return
	}

	content := s.crawlForContent(ctx, lead)
	if content == "" {
		zap.L().Debug("qualify: site unreachable", zap.String("company", lead.Company))
		return
	}
	lead.SiteActive = true

	cls, err := s.classify(ctx, content, lead.Website)
	if err != nil {
		zap.L().Warn("qualify: classification failed, using keyword fallback",
			zap.String("company", lead.Company),
			zap.Error(err),
		)
		cls = keywordClassify(content)
	}

	lead.BusinessType = model.ParseBusinessType(cls.BusinessType)
	if strings.EqualFold(cls.Ecommerce, "yes") {
		lead.Ecommerce = model.EcommerceYes
	} else {
		lead.Ecommerce = model.EcommerceNo
	}
	lead.QualifyConf = cls.Confidence
	lead.TechStack = cls.TechStack
}

// crawlForContent scrapes the homepage, then common contact pages until an
// email turns up. All scraped text is concatenated for classification.
func (s *QualifyStage) crawlForContent(ctx context.Context, lead *model.Lead) string {
	content := s.scrape(ctx, lead.Website)
	if emails := extractEmails(content); len(emails) > 0 {
		lead.GenericEmail = emails[0]
		return content
	}
	if content == "" {
		return ""
	}

	base := "https://" + lead.Domain()
	for _, suffix := range contactPageSuffixes {
		page := s.scrape(ctx, base+suffix)
		if page == "" {
			continue
		}
		if emails := extractEmails(page); len(emails) > 0 {
			lead.GenericEmail = emails[0]
			content += "\n" + page
			break
		}
	}
	return content
}

func (s *QualifyStage) scrape(ctx context.Context, url string) string {
	if !strings.HasPrefix(url, "http://") && !strings.HasPrefix(url, "https://") {
		url = "https://" + url
	}
	resp, err := s.Firecrawl.Scrape(ctx, firecrawl.ScrapeRequest{
		URL:     url,
		Formats: []string{"markdown"},
	})
	if err != nil {
		zap.L().Debug("qualify: scrape failed", zap.String("url", url), zap.Error(err))
		return ""
	}
	return resp.Data.Markdown
}

const classifyPrompt = `Analyze this website and answer ONLY with valid JSON (no markdown, no text before or after).

URL: %s
Target industry: %s

Site content:
%s

Answer with this exact JSON:
{
  "business_type": "manufacturer" or "retailer" or "distributor" or "service" or "unknown",
  "ecommerce": "yes" or "no",
  "confidence": 0-100,
  "reasoning": "one explanatory sentence",
  "tech_stack": "Shopify/WooCommerce/PrestaShop/Magento/custom/unknown"
}

Classification rules:
- "manufacturer"/"retailer"/"distributor" = makes, sells, or resells physical PRODUCTS (factory, reseller, showroom, online store). Includes sites selling products even when wrapped in lifestyle marketing.
- "service" = offers SERVICES (rental, booking, sessions, treatments, experiences). The customer uses a service, they do not buy a physical product to take away.
- "unknown" = impossible to determine
- "ecommerce" = "yes" if the site supports buying online (cart, checkout, order, listed prices with purchase)
- "tech_stack" = e-commerce platform detected in the content, or "unknown"`

// maxClassifyContent bounds the content sent to the LLM.
const maxClassifyContent = 4000

func (s *QualifyStage) classify(ctx context.Context, content, url string) (classification, error) {
	if len(content) > maxClassifyContent {
		content = content[:maxClassifyContent]
	}

	resp, err := s.Anthropic.CreateMessage(ctx, anthropic.MessageRequest{
		Model:     classifyModel,
		MaxTokens: 300,
		Messages: []anthropic.Message{
			{Role: "user", Content: fmt.Sprintf(classifyPrompt, url, s.Industry, content)},
		},
	})
	if err != nil {
		return classification{}, err
	}
	resp.Usage.LogCost(classifyModel, StageQualify)

	var cls classification
	if err := json.Unmarshal([]byte(stripFences(resp.Text())), &cls); err != nil {
		return classification{}, eris.Wrap(err, "qualify: parse classification")
	}
	return cls, nil
}

// stripFences removes a wrapping markdown code fence, which the model
// sometimes adds despite instructions.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[i+1:]
	}
	if i := strings.LastIndex(s, "```"); i >= 0 {
		s = s[:i]
	}
	return strings.TrimSpace(s)
}

var emailRe = regexp.MustCompile(`\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}\b`)

// extractEmails pulls plausible contact addresses out of page text,
// dropping no-reply addresses and image filenames that match the pattern.
func extractEmails(text string) []string {
	var out []string
	seen := make(map[string]bool)
	for _, email := range emailRe.FindAllString(text, -1) {
		lower := strings.ToLower(email)
		if strings.Contains(lower, "noreply") || strings.Contains(lower, "no-reply") ||
			strings.Contains(lower, ".png") || strings.Contains(lower, ".jpg") ||
			strings.Contains(lower, "example.com") {
			continue
		}
		if !seen[lower] {
			seen[lower] = true
			out = append(out, email)
		}
	}
	return out
}

// keywordClassify is the LLM-free fallback: coarse keyword counting.
func keywordClassify(content string) classification {
	lower := strings.ToLower(content)

	sellerWords := []string{
		"manufacturer", "factory", "production", "catalog", "products",
		"models", "range", "distributor", "reseller", "showroom", "quote", "pricing",
	}
	serviceWords := []string{
		"booking", "reservation", "session", "treatment", "massage",
		"relaxation", "wellness", "subscription", "appointment", "experience",
	}
	ecomWords := []string{
		"cart", "checkout", "order", "buy", "shop", "add to cart",
		"payment", "shipping",
	}

	count := func(words []string) int {
		n := 0
		for _, w := range words {
			if strings.Contains(lower, w) {
				n++
			}
		}
		return n
	}

	sellerScore := count(sellerWords)
	serviceScore := count(serviceWords)

	cls := classification{
		BusinessType: "unknown",
		Ecommerce:    "no",
		Confidence:   50,
		Reasoning:    "keyword-based fallback classification",
		TechStack:    "unknown",
	}
	if sellerScore >= 3 && sellerScore > serviceScore {
		cls.BusinessType = "manufacturer"
	} else if serviceScore >= 3 && serviceScore > sellerScore {
		cls.BusinessType = "service"
	}
	if count(ecomWords) > 0 {
		cls.Ecommerce = "yes"
	}
	return cls
}

func (s *QualifyStage) sleep(ctx context.Context, d time.Duration) error {
	if s.Sleep != nil {
		return s.Sleep(ctx, d)
	}
	return stageSleep(ctx, d)
}
