package shopify

// GraphQL documents. Fragments are appended to the operations that spread them.

const cartFields = `
fragment CartFields on Cart {
  id
  checkoutUrl
  totalQuantity
  cost {
    subtotalAmount { amount currencyCode }
    totalAmount { amount currencyCode }
  }
  lines(first: 100) {
    edges {
      node {
        id
        quantity
        cost { totalAmount { amount currencyCode } }
        merchandise {
          ... on ProductVariant {
            id
            title
            price { amount currencyCode }
            image { url altText }
            product { id title handle }
          }
        }
      }
    }
  }
}`

const userErrorFields = `userErrors { field message code }`

// productCardFields is the listing shape: one image and the first variants.
const productCardFields = `
fragment ProductCardFields on Product {
  id
  handle
  title
  description
  images(first: 1) { edges { node { url altText } } }
  variants(first: 10) {
    edges {
      node {
        id
        title
        availableForSale
        price { amount currencyCode }
        selectedOptions { name value }
      }
    }
  }
}`

// productDetailFields is the product page shape.
const productDetailFields = `
fragment ProductDetailFields on Product {
  id
  handle
  title
  description
  images(first: 10) { edges { node { url altText } } }
  options { name values }
  variants(first: 100) {
    edges {
      node {
        id
        title
        availableForSale
        price { amount currencyCode }
        image { url altText }
        selectedOptions { name value }
      }
    }
  }
}`

const queryCart = `
query Cart($cartId: ID!) {
  cart(id: $cartId) { ...CartFields }
}` + cartFields

const queryProductByID = `
query Product($id: ID!) {
  product(id: $id) { ...ProductDetailFields }
}` + productDetailFields

const queryProductByHandle = `
query ProductByHandle($handle: String!) {
  product(handle: $handle) { ...ProductDetailFields }
}` + productDetailFields

const queryProducts = `
query Products($first: Int!, $after: String) {
  products(first: $first, after: $after) {
    pageInfo { hasNextPage endCursor }
    edges { node { ...ProductCardFields } }
  }
}` + productCardFields

const queryCollectionProducts = `
query CollectionProducts($handle: String!, $first: Int!, $after: String) {
  collection(handle: $handle) {
    id
    handle
    title
    products(first: $first, after: $after) {
      pageInfo { hasNextPage endCursor }
      edges { node { ...ProductCardFields } }
    }
  }
}` + productCardFields

const mutationCartCreate = `
mutation CartCreate($input: CartInput!) {
  cartCreate(input: $input) {
    cart { ...CartFields }
    ` + userErrorFields + `
  }
}` + cartFields

const mutationCartLinesAdd = `
mutation CartLinesAdd($cartId: ID!, $lines: [CartLineInput!]!) {
  cartLinesAdd(cartId: $cartId, lines: $lines) {
    cart { ...CartFields }
    ` + userErrorFields + `
  }
}` + cartFields

const mutationCartLinesUpdate = `
mutation CartLinesUpdate($cartId: ID!, $lines: [CartLineUpdateInput!]!) {
  cartLinesUpdate(cartId: $cartId, lines: $lines) {
    cart { ...CartFields }
    ` + userErrorFields + `
  }
}` + cartFields

const mutationCartLinesRemove = `
mutation CartLinesRemove($cartId: ID!, $lineIds: [ID!]!) {
  cartLinesRemove(cartId: $cartId, lineIds: $lineIds) {
    cart { ...CartFields }
    ` + userErrorFields + `
  }
}` + cartFields
