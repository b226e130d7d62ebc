package controllers

import (
	"net/http"

	"github.com/autoflexeasy/autoflex-backend/api/responses"
	"github.com/autoflexeasy/autoflex-backend/internal/marketing"
)

func PublicSite(content *marketing.Content) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		responses.WriteSuccess(w, content.Site())
	}
}

func PublicPricing(content *marketing.Content) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		responses.WriteSuccess(w, content.Pricing())
	}
}

func PublicFAQ(content *marketing.Content) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		responses.WriteSuccess(w, content.FAQ())
	}
}

func PublicTestimonials(content *marketing.Content) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		responses.WriteSuccess(w, content.Testimonials())
	}
}

func PublicNav(content *marketing.Content) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		responses.WriteSuccess(w, content.Nav())
	}
}
