package notify

// Prices render in whole rand. Kept as one blob so the layout stays easy to
// diff against the live emails.
const emailTemplates = `
{{define "items_table"}}
<table width="100%" cellpadding="6" cellspacing="0" style="border-collapse:collapse">
  <tr style="background:#111;color:#fff;text-align:left">
    <th>Item</th><th>Size</th><th>Qty</th><th>Price</th>
  </tr>
  {{range .Items}}
  <tr style="border-bottom:1px solid #ddd">
    <td>{{.Brand}} {{.ProductName}}</td>
    <td>{{.Size}}</td>
    <td>{{.Quantity}}</td>
    <td>{{rand .Price}}</td>
  </tr>
  {{end}}
  <tr><td colspan="3" align="right">Subtotal</td><td>{{rand .Subtotal}}</td></tr>
  <tr><td colspan="3" align="right">Delivery ({{.DeliveryMethod}})</td><td>{{rand .DeliveryCost}}</td></tr>
  <tr style="font-weight:bold"><td colspan="3" align="right">Total</td><td>{{rand .Total}}</td></tr>
</table>
{{end}}

{{define "order_confirmation"}}
<html><body style="font-family:Arial,sans-serif;color:#111">
<h2>Thanks for your order, {{.CustomerName}}!</h2>
<p>Your payment for order <strong>{{.OrderNumber}}</strong> was received.
We are getting your kicks ready.</p>
{{template "items_table" .}}
<p>Delivering to: {{.DeliveryAddress}}, {{.DeliveryCity}}</p>
<p>Soultouch ZA</p>
</body></html>
{{end}}

{{define "order_shipped"}}
<html><body style="font-family:Arial,sans-serif;color:#111">
<h2>Your order is on its way</h2>
<p>Hi {{.CustomerName}}, order <strong>{{.OrderNumber}}</strong> has shipped
to {{.DeliveryAddress}}, {{.DeliveryCity}}.</p>
{{template "items_table" .}}
<p>Soultouch ZA</p>
</body></html>
{{end}}

{{define "order_delivered"}}
<html><body style="font-family:Arial,sans-serif;color:#111">
<h2>Delivered!</h2>
<p>Hi {{.CustomerName}}, order <strong>{{.OrderNumber}}</strong> was delivered.
Enjoy the fresh pair.</p>
<p>Soultouch ZA</p>
</body></html>
{{end}}
`
